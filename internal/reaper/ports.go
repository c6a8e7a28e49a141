package reaper

import "context"

// Session is an authenticated mailbox connection with the trash folder selected.
type Session interface {
	ListTrashMessageIDs(ctx context.Context) ([]uint32, error)
	DeleteMessages(ctx context.Context, ids []uint32) error
	ExpungeDeleted(ctx context.Context) error
	Close() error
}

// Connector opens a new Session. Authentication happens once per call.
type Connector interface {
	Connect(ctx context.Context) (Session, error)
}

// Recoverer is implemented by sessions that can repair themselves between
// failed attempts, e.g. by re-dialing a dropped connection.
type Recoverer interface {
	Recover(ctx context.Context) error
}

type ProgressReporter interface {
	Report(done, total int)
}

// Announcer publishes the outcome of a cycle to an operator-visible channel.
type Announcer interface {
	Announce(ctx context.Context, result CycleResult, err error) error
}
