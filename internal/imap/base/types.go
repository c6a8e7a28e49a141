package base

import (
	giimapclient "github.com/emersion/go-imap/v2/imapclient"
)

// State is the connection shared by the managers composed into imap.Client.
type State struct {
	Client *giimapclient.Client
}
