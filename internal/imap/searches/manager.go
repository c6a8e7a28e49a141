package searches

import (
	"context"
	"errors"

	"github.com/emersion/go-imap/v2"
	giimapclient "github.com/emersion/go-imap/v2/imapclient"
)

type ServerSearcher interface {
	SearchAllUIDs(ctx context.Context) ([]uint32, error)
}

// Interface to initialize the manager
type ClientProvider interface {
	IMAPClient() *giimapclient.Client
}

type IMAPSearchManager struct {
	provider func() *giimapclient.Client
}

func New(provider ClientProvider) *IMAPSearchManager {
	return &IMAPSearchManager{provider: provider.IMAPClient}
}

// SearchAllUIDs returns the UID of every message in the selected mailbox, in
// the order the server reports them.
func (m *IMAPSearchManager) SearchAllUIDs(ctx context.Context) ([]uint32, error) {
	if m.provider == nil || m.provider() == nil {
		return nil, errors.New("IMAP client is not connected")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := m.provider().UIDSearch(&imap.SearchCriteria{}, nil).Wait()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	uids := data.AllUIDs()
	matches := make([]uint32, 0, len(uids))
	for _, uid := range uids {
		matches = append(matches, uint32(uid))
	}
	return matches, nil
}
