// Package microsoft implements one connector family over Microsoft Graph
// (spec §5, §8 scenarios 4 and 6): SharePoint/OneDrive drive items with
// delta refresh, Outlook email (falling back to IMAP when Graph is
// unavailable), and Teams chat-message citations. All three share the
// same process-wide token cache and request pacing (internal/connectors
// microsoft.SharedState), since a tenant's Graph application registration
// is throttled as a single client regardless of which sub-surface issues
// the request.
package microsoft

import (
	"fmt"
	"strings"

	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/uri"
	"github.com/ternarybob/ndkgw/internal/validated"
)

const realmName = "microsoft"

func realmValue() validated.Realm {
	r, _ := validated.DecodeRealm(realmName)
	return r
}

func pathUri(subrealm string, parts ...string) uri.ResourceUri {
	sr, _ := validated.DecodeSubrealm(subrealm)
	path := make([]validated.FileName, 0, len(parts))
	for _, p := range parts {
		fn, _ := validated.DecodeFileName(p)
		path = append(path, fn)
	}
	return uri.New(realmValue(), sr, path...)
}

func decodeWebUrlOrZero(raw string) (uri.WebUrl, bool) {
	w, err := uri.DecodeWebUrl(raw)
	if err != nil {
		return uri.WebUrl{}, false
	}
	return w, true
}

// MsSharePointFileLocator addresses one SharePoint/OneDrive drive item
// (spec: "{site_id, item_id, item_path} for a SharePoint file").
type MsSharePointFileLocator struct {
	SiteID   string
	DriveID  string
	ItemID   string
	ItemPath string
}

func (l MsSharePointFileLocator) Kind() string { return "ms_sharepoint_file" }
func (l MsSharePointFileLocator) ResourceUri() uri.ResourceUri {
	return pathUri("sharepoint", l.SiteID, l.DriveID, l.ItemID)
}
func (l MsSharePointFileLocator) ContentUrl() (uri.WebUrl, bool) { return uri.WebUrl{}, false }
func (l MsSharePointFileLocator) CitationUrl() (uri.WebUrl, bool) {
	if l.ItemPath == "" {
		return uri.WebUrl{}, false
	}
	return decodeWebUrlOrZero(fmt.Sprintf("https://graph.microsoft.com/sites/%s/drives/%s/root:%s", l.SiteID, l.DriveID, l.ItemPath))
}
func (l MsSharePointFileLocator) Realm() validated.Realm { return realmValue() }

// TeamsLocator addresses a single Teams chat message, parsed from a
// "teams.microsoft.com/l/message/{threadId}/{messageId}?groupId=..." URL
// (spec §8 scenario 4).
type TeamsLocator struct {
	ThreadID  string
	MessageID string
	GroupID   string
}

func (l TeamsLocator) Kind() string { return "ms_teams_message" }
func (l TeamsLocator) ResourceUri() uri.ResourceUri {
	return pathUri("teams", sanitizeThreadID(l.ThreadID), l.MessageID)
}
func (l TeamsLocator) ContentUrl() (uri.WebUrl, bool) { return uri.WebUrl{}, false }
func (l TeamsLocator) CitationUrl() (uri.WebUrl, bool) {
	human := fmt.Sprintf("https://teams.microsoft.com/l/message/%s/%s?groupId=%s", l.ThreadID, l.MessageID, l.GroupID)
	return decodeWebUrlOrZero(human)
}
func (l TeamsLocator) Realm() validated.Realm { return realmValue() }

// sanitizeThreadID folds a thread ID's ":"/"@" separators (e.g.
// "19:abcdef@thread.tacv2") into a single FileName-safe segment.
func sanitizeThreadID(threadID string) string {
	cleaned := strings.NewReplacer(":", "_", "@", "_").Replace(threadID)
	return cleaned
}

// ParseTeamsMessageUrl parses a "teams.microsoft.com/l/message/..." URL
// into a TeamsLocator without any network access. Exported so other
// connectors (e.g. jira, spec §8 scenario 4) can recognise a Teams link
// embedded in foreign content and derive its resource URI directly.
func ParseTeamsMessageUrl(w uri.WebUrl) (TeamsLocator, bool) {
	if w.Host() != "teams.microsoft.com" {
		return TeamsLocator{}, false
	}
	segments := strings.Split(strings.Trim(w.Path(), "/"), "/")
	if len(segments) < 4 || segments[0] != "l" || segments[1] != "message" {
		return TeamsLocator{}, false
	}
	groupID, _ := w.GetQuery("groupId")
	return TeamsLocator{ThreadID: segments[2], MessageID: segments[3], GroupID: groupID}, true
}

// OutlookLocator addresses a single Outlook mail item, either by Graph
// message ID (internal tenant mail) or, for the IMAP fallback path, by
// mailbox + IMAP sequence number.
type OutlookLocator struct {
	MessageID string
	Mailbox   string
	SeqNum    uint32
}

func (l OutlookLocator) Kind() string { return "ms_outlook_message" }
func (l OutlookLocator) ResourceUri() uri.ResourceUri {
	if l.MessageID != "" {
		return pathUri("outlook", sanitizeThreadID(l.MessageID))
	}
	return pathUri("outlook", l.Mailbox, fmt.Sprintf("%d", l.SeqNum))
}
func (l OutlookLocator) ContentUrl() (uri.WebUrl, bool) { return uri.WebUrl{}, false }
func (l OutlookLocator) CitationUrl() (uri.WebUrl, bool) { return uri.WebUrl{}, false }
func (l OutlookLocator) Realm() validated.Realm          { return realmValue() }

var (
	_ locator.Locator = MsSharePointFileLocator{}
	_ locator.Locator = TeamsLocator{}
	_ locator.Locator = OutlookLocator{}
)
