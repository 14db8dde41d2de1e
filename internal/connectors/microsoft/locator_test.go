package microsoft

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/ndkgw/internal/connectors"
	"github.com/ternarybob/ndkgw/internal/uri"
)

// TestTeamsLocatorFromMessageUrl pins spec §8 scenario 4's relation
// target: a Teams conversation link resolves to a TeamsLocator without any
// network access, since the URL itself carries thread/message/group ids.
func TestTeamsLocatorFromMessageUrl(t *testing.T) {
	c, err := NewConnector("contoso.sharepoint.com", NewSharedState("tenant", "client", "secret"), nil, nil, ImapConfig{})
	require.NoError(t, err)

	w, err := uri.DecodeWebUrl("https://teams.microsoft.com/l/message/19:abcdef@thread.tacv2/1700000000?groupId=11111111-1111-1111-1111-111111111111")
	require.NoError(t, err)

	loc, err := c.Locator(context.Background(), connectors.WebReference{Url: w})
	require.NoError(t, err)
	require.NotNil(t, loc)

	teams, ok := loc.(TeamsLocator)
	require.True(t, ok)
	assert.Equal(t, "19:abcdef@thread.tacv2", teams.ThreadID)
	assert.Equal(t, "1700000000", teams.MessageID)
	assert.Equal(t, "ndk://microsoft/teams/19_abcdef_thread.tacv2/1700000000", loc.ResourceUri().String())
}

// TestSetDeltaLinkNeverOverwritesWithEmpty pins spec §8 scenario 6's
// invariant: a refresh round with no changes (no @odata.deltaLink in the
// response) must not erase a previously stored delta link.
func TestSetDeltaLinkNeverOverwritesWithEmpty(t *testing.T) {
	s := NewSharedState("tenant", "client", "secret")
	s.SetDeltaLink("site-1", "https://graph.microsoft.com/v1.0/sites/site-1/drive/root/delta?token=abc")

	s.SetDeltaLink("site-1", "")

	link, ok := s.DeltaLink("site-1")
	assert.True(t, ok)
	assert.Equal(t, "https://graph.microsoft.com/v1.0/sites/site-1/drive/root/delta?token=abc", link)
}
