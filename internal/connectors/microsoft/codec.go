package microsoft

import (
	"fmt"

	"github.com/ternarybob/ndkgw/internal/locator"
	"github.com/ternarybob/ndkgw/internal/storage"
)

// MsSharePointFileLocatorCodec implements storage.LocatorCodec for
// MsSharePointFileLocator.
type MsSharePointFileLocatorCodec struct{}

func (MsSharePointFileLocatorCodec) Kind() string { return "ms_sharepoint_file" }
func (MsSharePointFileLocatorCodec) Encode(loc locator.Locator) (map[string]any, error) {
	l, ok := loc.(MsSharePointFileLocator)
	if !ok {
		return nil, fmt.Errorf("microsoft: MsSharePointFileLocatorCodec.Encode: unexpected type %T", loc)
	}
	return map[string]any{"site_id": l.SiteID, "drive_id": l.DriveID, "item_id": l.ItemID, "item_path": l.ItemPath}, nil
}
func (MsSharePointFileLocatorCodec) Decode(fields map[string]any) (locator.Locator, error) {
	siteID, _ := fields["site_id"].(string)
	driveID, _ := fields["drive_id"].(string)
	itemID, _ := fields["item_id"].(string)
	itemPath, _ := fields["item_path"].(string)
	if siteID == "" || driveID == "" || itemID == "" {
		return nil, fmt.Errorf("microsoft: MsSharePointFileLocatorCodec.Decode: missing site/drive/item id")
	}
	return MsSharePointFileLocator{SiteID: siteID, DriveID: driveID, ItemID: itemID, ItemPath: itemPath}, nil
}

// TeamsLocatorCodec implements storage.LocatorCodec for TeamsLocator.
type TeamsLocatorCodec struct{}

func (TeamsLocatorCodec) Kind() string { return "ms_teams_message" }
func (TeamsLocatorCodec) Encode(loc locator.Locator) (map[string]any, error) {
	l, ok := loc.(TeamsLocator)
	if !ok {
		return nil, fmt.Errorf("microsoft: TeamsLocatorCodec.Encode: unexpected type %T", loc)
	}
	return map[string]any{"thread_id": l.ThreadID, "message_id": l.MessageID, "group_id": l.GroupID}, nil
}
func (TeamsLocatorCodec) Decode(fields map[string]any) (locator.Locator, error) {
	threadID, _ := fields["thread_id"].(string)
	messageID, _ := fields["message_id"].(string)
	groupID, _ := fields["group_id"].(string)
	if threadID == "" || messageID == "" {
		return nil, fmt.Errorf("microsoft: TeamsLocatorCodec.Decode: missing thread/message id")
	}
	return TeamsLocator{ThreadID: threadID, MessageID: messageID, GroupID: groupID}, nil
}

// OutlookLocatorCodec implements storage.LocatorCodec for OutlookLocator.
type OutlookLocatorCodec struct{}

func (OutlookLocatorCodec) Kind() string { return "ms_outlook_message" }
func (OutlookLocatorCodec) Encode(loc locator.Locator) (map[string]any, error) {
	l, ok := loc.(OutlookLocator)
	if !ok {
		return nil, fmt.Errorf("microsoft: OutlookLocatorCodec.Encode: unexpected type %T", loc)
	}
	return map[string]any{"message_id": l.MessageID, "mailbox": l.Mailbox, "seq_num": float64(l.SeqNum)}, nil
}
func (OutlookLocatorCodec) Decode(fields map[string]any) (locator.Locator, error) {
	messageID, _ := fields["message_id"].(string)
	mailbox, _ := fields["mailbox"].(string)
	seq, _ := fields["seq_num"].(float64)
	if messageID == "" && mailbox == "" {
		return nil, fmt.Errorf("microsoft: OutlookLocatorCodec.Decode: missing message_id/mailbox")
	}
	return OutlookLocator{MessageID: messageID, Mailbox: mailbox, SeqNum: uint32(seq)}, nil
}

var (
	_ storage.LocatorCodec = MsSharePointFileLocatorCodec{}
	_ storage.LocatorCodec = TeamsLocatorCodec{}
	_ storage.LocatorCodec = OutlookLocatorCodec{}
)
