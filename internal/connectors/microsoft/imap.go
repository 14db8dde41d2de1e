package microsoft

import (
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
)

// ImapConfig names the mailbox an OutlookLocator falls back to reading via
// raw IMAP when Graph access is unavailable (spec §5's "falls back to
// go-imap/go-message MIME parsing for raw message bodies").
type ImapConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
}

func (c ImapConfig) configured() bool {
	return c.Host != "" && c.Username != "" && c.Password != ""
}

// fetchViaIMAP connects, selects mailbox and reads seqNum's plain-text
// body. Grounded on the teacher's imap.Service.FetchUnreadEmails /
// parseMessageBody (internal/services/imap/service.go), generalised from
// "all unseen messages" to a single addressed message.
func fetchViaIMAP(cfg ImapConfig, mailbox string, seqNum uint32) (subject, from, body string, err error) {
	if !cfg.configured() {
		return "", "", "", fmt.Errorf("microsoft: IMAP fallback not configured")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	var c *client.Client
	if cfg.UseTLS {
		c, err = client.DialTLS(addr, nil)
	} else {
		c, err = client.Dial(addr)
	}
	if err != nil {
		return "", "", "", fmt.Errorf("microsoft: IMAP dial %s: %w", addr, err)
	}
	defer c.Logout()

	if err := c.Login(cfg.Username, cfg.Password); err != nil {
		return "", "", "", fmt.Errorf("microsoft: IMAP login: %w", err)
	}

	if mailbox == "" {
		mailbox = "INBOX"
	}
	if _, err := c.Select(mailbox, true); err != nil {
		return "", "", "", fmt.Errorf("microsoft: IMAP select %s: %w", mailbox, err)
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(seqNum)
	section := &imap.BodySectionName{}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqSet, []imap.FetchItem{imap.FetchEnvelope, section.FetchItem()}, messages)
	}()

	var msg *imap.Message
	for m := range messages {
		msg = m
	}
	if err := <-done; err != nil {
		return "", "", "", fmt.Errorf("microsoft: IMAP fetch seq %d: %w", seqNum, err)
	}
	if msg == nil {
		return "", "", "", fmt.Errorf("microsoft: IMAP seq %d not found in %s", seqNum, mailbox)
	}

	if msg.Envelope != nil {
		subject = msg.Envelope.Subject
		if len(msg.Envelope.From) > 0 {
			from = msg.Envelope.From[0].Address()
		}
	}

	body, err = parseIMAPBody(msg, section)
	if err != nil {
		return "", "", "", err
	}
	return subject, from, body, nil
}

func parseIMAPBody(msg *imap.Message, section *imap.BodySectionName) (string, error) {
	r := msg.GetBody(section)
	if r == nil {
		return "", fmt.Errorf("microsoft: IMAP message has no body section")
	}
	mr, err := mail.CreateReader(r)
	if err != nil {
		return "", fmt.Errorf("microsoft: parse MIME message: %w", err)
	}

	var text string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("microsoft: read MIME part: %w", err)
		}
		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		if strings.HasPrefix(contentType, "text/plain") {
			b, err := io.ReadAll(p.Body)
			if err != nil {
				return "", fmt.Errorf("microsoft: read MIME body: %w", err)
			}
			text = string(b)
		}
	}
	return strings.TrimSpace(text), nil
}
