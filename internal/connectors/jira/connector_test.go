package jira

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/ndkgw/internal/connectors"
	"github.com/ternarybob/ndkgw/internal/relation"
	"github.com/ternarybob/ndkgw/internal/uri"
)

func TestIssueLocatorFromBrowseUrl(t *testing.T) {
	c, err := NewConnector("issues.example.com", "", "token", nil)
	require.NoError(t, err)

	w, err := uri.DecodeWebUrl("https://issues.example.com/browse/PROJ-42")
	require.NoError(t, err)

	loc, err := c.Locator(context.Background(), connectors.WebReference{Url: w})
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, "ndk://jira/issue/PROJ-42", loc.ResourceUri().String())
}

// TestRenderIssueExcludesTeamsCommentAndEmitsParentRelation pins spec §8
// scenario 4 verbatim: a comment containing a Teams conversation link is
// omitted from the rendered body, and a parent relation from the issue to
// the Teams message is emitted instead.
func TestRenderIssueExcludesTeamsCommentAndEmitsParentRelation(t *testing.T) {
	issueUri, err := uri.Decode("ndk://jira/issue/PROJ-42")
	require.NoError(t, err)

	comments := []any{
		map[string]any{
			"author": map[string]any{"displayName": "Alice"},
			"body":   "[Microsoft Teams conversation|https://teams.microsoft.com/l/message/19:abcdef@thread.tacv2/1700000000?groupId=11111111-1111-1111-1111-111111111111]",
		},
		map[string]any{
			"author": map[string]any{"displayName": "Bob"},
			"body":   "Looks good to me.",
		},
	}

	text, relations := renderIssue("PROJ-42", issueUri, "Fix the thing", "Steps to reproduce...", comments)

	assert.NotContains(t, text, "teams.microsoft.com")
	assert.Contains(t, text, "Bob")
	assert.Contains(t, text, "Looks good to me.")
	assert.True(t, strings.Contains(text, "Fix the thing"))

	require.Len(t, relations, 1)
	parent, ok := relations[0].(relation.Parent)
	require.True(t, ok)
	assert.Equal(t, issueUri.String(), parent.ParentUri.String())
	assert.Equal(t, "ndk://microsoft/teams/19_abcdef_thread.tacv2/1700000000", parent.Child.String())
}
