package selectors

import (
	"context"
	"errors"
	"strings"

	"github.com/emersion/go-imap/v2"
	giimapclient "github.com/emersion/go-imap/v2/imapclient"
)

// ErrTrashNotFound is returned when no mailbox looks like the trash folder.
var ErrTrashNotFound = errors.New("trash mailbox not found")

// TrashNames are tried in order when no mailbox carries the \Trash attribute.
var TrashNames = []string{
	"[Gmail]/Trash",
	"[Google Mail]/Trash",
	"Trash",
	"INBOX.Trash",
	"Deleted Items",
	"Deleted Messages",
}

type ServerSelectors interface {
	SelectMailbox(ctx context.Context, mailbox string) (*imap.SelectData, error)
	ListMailboxes(ctx context.Context) ([]*imap.ListData, error)
	FindTrashMailbox(ctx context.Context) (string, error)
}

// Interface to initialize the manager
type ClientProvider interface {
	IMAPClient() *giimapclient.Client
}

type IMAPSelectorManager struct {
	provider func() *giimapclient.Client
}

func New(provider ClientProvider) *IMAPSelectorManager {
	return &IMAPSelectorManager{provider: provider.IMAPClient}
}

// SelectMailbox selects a mailbox read-write and returns its metadata.
func (c *IMAPSelectorManager) SelectMailbox(ctx context.Context, mailbox string) (*imap.SelectData, error) {
	if c.provider == nil || c.provider() == nil {
		return nil, errors.New("IMAP client is not connected")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(mailbox) == "" {
		return nil, errors.New("mailbox is required")
	}
	return c.provider().Select(mailbox, nil).Wait()
}

// ListMailboxes returns every mailbox visible to the account.
func (c *IMAPSelectorManager) ListMailboxes(ctx context.Context) ([]*imap.ListData, error) {
	if c.provider == nil || c.provider() == nil {
		return nil, errors.New("IMAP client is not connected")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.provider().List("", "*", nil).Collect()
}

// FindTrashMailbox prefers the RFC 6154 \Trash attribute and falls back to
// well-known folder names.
func (c *IMAPSelectorManager) FindTrashMailbox(ctx context.Context) (string, error) {
	mailboxes, err := c.ListMailboxes(ctx)
	if err != nil {
		return "", err
	}
	return pickTrash(mailboxes)
}

func pickTrash(mailboxes []*imap.ListData) (string, error) {
	names := make(map[string]struct{}, len(mailboxes))
	for _, mbox := range mailboxes {
		if mbox == nil {
			continue
		}
		for _, attr := range mbox.Attrs {
			if strings.EqualFold(string(attr), string(imap.MailboxAttrTrash)) {
				return mbox.Mailbox, nil
			}
		}
		names[mbox.Mailbox] = struct{}{}
	}
	for _, name := range TrashNames {
		if _, ok := names[name]; ok {
			return name, nil
		}
	}
	return "", ErrTrashNotFound
}
