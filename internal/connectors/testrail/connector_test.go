package testrail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrailingIDParsesCaseAndRunUrls(t *testing.T) {
	caseID, ok := trailingID("/index.php", "cases/view")
	assert.False(t, ok)
	assert.Equal(t, 0, caseID)

	caseID, ok = trailingID("/index.php?/cases/view/12345", "cases/view")
	require.True(t, ok)
	assert.Equal(t, 12345, caseID)

	runID, ok := trailingID("/index.php?/runs/view/678", "runs/view")
	require.True(t, ok)
	assert.Equal(t, 678, runID)
}

func TestCaseLocatorResourceUriAndCitationUrl(t *testing.T) {
	loc := CaseLocator{Domain: "example.testrail.io", CaseID: 42}
	res := loc.ResourceUri()
	assert.Equal(t, "testrail", res.Realm().String())
	assert.Equal(t, "case", res.Subrealm().String())

	citation, ok := loc.CitationUrl()
	require.True(t, ok)
	assert.Equal(t, "https://example.testrail.io/index.php?/cases/view/42", citation.String())
}

func TestRenderRunEmitsParentRelationPerCase(t *testing.T) {
	runUri := RunLocator{Domain: "example.testrail.io", RunID: 5}.ResourceUri()
	tests := []any{
		map[string]any{"title": "Login succeeds", "case_id": float64(42)},
		map[string]any{"title": "Logout succeeds", "case_id": float64(43)},
	}

	text, relations := renderRun("example.testrail.io", runUri, "Smoke Run", tests)

	assert.Contains(t, text, "Login succeeds")
	assert.Contains(t, text, "Logout succeeds")
	require.Len(t, relations, 2)
	for _, r := range relations {
		assert.Equal(t, runUri.String(), r.GetSource().String())
	}
}
