package imap

import (
	"github.com/aaronromeo/trashreaper/internal/imap/actions"
	"github.com/aaronromeo/trashreaper/internal/imap/searches"
	"github.com/aaronromeo/trashreaper/internal/imap/selectors"
	"github.com/aaronromeo/trashreaper/internal/imap/sessionmanager"
)

// Client encapsulates an IMAP connection and the operations run over it.
type Client struct {
	*sessionmanager.IMAPConnector
	*searches.IMAPSearchManager
	*actions.IMAPActionManager
	*selectors.IMAPSelectorManager
}

func New(opts ...sessionmanager.Option) *Client {
	session := sessionmanager.NewServerConnector(opts...)
	client := &Client{
		session,
		searches.New(session),
		actions.New(session),
		selectors.New(session),
	}
	return client
}
