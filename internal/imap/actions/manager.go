package actions

import (
	"context"
	"errors"

	"github.com/emersion/go-imap/v2"
	giimapclient "github.com/emersion/go-imap/v2/imapclient"
)

type Actions interface {
	MarkDeleted(ctx context.Context, uids []uint32) error
	Expunge(ctx context.Context, uids []uint32) error
}

// Interface to initialize the manager
type ClientProvider interface {
	IMAPClient() *giimapclient.Client
}

type IMAPActionManager struct {
	provider func() *giimapclient.Client
}

func New(provider ClientProvider) *IMAPActionManager {
	return &IMAPActionManager{provider: provider.IMAPClient}
}

// MarkDeleted adds the \Deleted flag to messages in the selected mailbox.
func (c *IMAPActionManager) MarkDeleted(ctx context.Context, uids []uint32) error {
	if c.provider == nil || c.provider() == nil {
		return errors.New("IMAP client is not connected")
	}
	if len(uids) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	store := imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagDeleted},
	}
	if err := c.provider().Store(uidSet(uids), &store, nil).Close(); err != nil {
		return err
	}
	return ctx.Err()
}

// Expunge permanently removes messages flagged \Deleted. With UIDPLUS only the
// given UIDs are expunged; otherwise every flagged message in the mailbox is.
func (c *IMAPActionManager) Expunge(ctx context.Context, uids []uint32) error {
	if c.provider == nil || c.provider() == nil {
		return errors.New("IMAP client is not connected")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(uids) > 0 && c.provider().Caps().Has(imap.CapUIDPlus) {
		_, err := c.provider().UIDExpunge(uidSet(uids)).Collect()
		return err
	}

	_, err := c.provider().Expunge().Collect()
	return err
}

func uidSet(uids []uint32) imap.UIDSet {
	var set imap.UIDSet
	for _, uid := range uids {
		set.AddNum(imap.UID(uid))
	}
	return set
}
