package testrail

import (
	"fmt"

	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/storage"
)

// CaseLocatorCodec implements storage.LocatorCodec for CaseLocator.
type CaseLocatorCodec struct{}

func (CaseLocatorCodec) Kind() string { return "testrail_case" }
func (CaseLocatorCodec) Encode(loc locator.Locator) (map[string]any, error) {
	l, ok := loc.(CaseLocator)
	if !ok {
		return nil, fmt.Errorf("testrail: CaseLocatorCodec.Encode: unexpected type %T", loc)
	}
	return map[string]any{"domain": l.Domain, "case_id": l.CaseID}, nil
}
func (CaseLocatorCodec) Decode(fields map[string]any) (locator.Locator, error) {
	domain, _ := fields["domain"].(string)
	caseID, err := decodeIntField(fields, "case_id")
	if err != nil {
		return nil, fmt.Errorf("testrail: CaseLocatorCodec.Decode: %w", err)
	}
	return CaseLocator{Domain: domain, CaseID: caseID}, nil
}

// RunLocatorCodec implements storage.LocatorCodec for RunLocator.
type RunLocatorCodec struct{}

func (RunLocatorCodec) Kind() string { return "testrail_run" }
func (RunLocatorCodec) Encode(loc locator.Locator) (map[string]any, error) {
	l, ok := loc.(RunLocator)
	if !ok {
		return nil, fmt.Errorf("testrail: RunLocatorCodec.Encode: unexpected type %T", loc)
	}
	return map[string]any{"domain": l.Domain, "run_id": l.RunID}, nil
}
func (RunLocatorCodec) Decode(fields map[string]any) (locator.Locator, error) {
	domain, _ := fields["domain"].(string)
	runID, err := decodeIntField(fields, "run_id")
	if err != nil {
		return nil, fmt.Errorf("testrail: RunLocatorCodec.Decode: %w", err)
	}
	return RunLocator{Domain: domain, RunID: runID}, nil
}

func decodeIntField(fields map[string]any, key string) (int, error) {
	switch v := fields[key].(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("missing or non-numeric %q", key)
	}
}

var (
	_ storage.LocatorCodec = CaseLocatorCodec{}
	_ storage.LocatorCodec = RunLocatorCodec{}
)
