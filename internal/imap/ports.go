package imap

import (
	"github.com/aaronromeo/trashreaper/internal/imap/actions"
	"github.com/aaronromeo/trashreaper/internal/imap/searches"
	"github.com/aaronromeo/trashreaper/internal/imap/selectors"
	"github.com/aaronromeo/trashreaper/internal/imap/sessionmanager"
)

type ServerRunner interface {
	sessionmanager.ServerConnector
	selectors.ServerSelectors
	searches.ServerSearcher
	actions.Actions
}

var _ ServerRunner = (*Client)(nil)
