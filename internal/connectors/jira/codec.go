package jira

import (
	"fmt"

	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/storage"
)

// IssueLocatorCodec implements storage.LocatorCodec for IssueLocator.
type IssueLocatorCodec struct{}

func (IssueLocatorCodec) Kind() string { return "jira_issue" }
func (IssueLocatorCodec) Encode(loc locator.Locator) (map[string]any, error) {
	l, ok := loc.(IssueLocator)
	if !ok {
		return nil, fmt.Errorf("jira: IssueLocatorCodec.Encode: unexpected type %T", loc)
	}
	return map[string]any{"domain": l.Domain, "key": l.Key}, nil
}
func (IssueLocatorCodec) Decode(fields map[string]any) (locator.Locator, error) {
	domain, _ := fields["domain"].(string)
	key, _ := fields["key"].(string)
	if key == "" {
		return nil, fmt.Errorf("jira: IssueLocatorCodec.Decode: missing key")
	}
	return IssueLocator{Domain: domain, Key: key}, nil
}

var _ storage.LocatorCodec = IssueLocatorCodec{}
