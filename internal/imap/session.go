package imap

import (
	"context"
	"crypto/tls"
	"log/slog"

	"github.com/aaronromeo/trashreaper/internal/config"
	"github.com/aaronromeo/trashreaper/internal/imap/sessionmanager"
	"github.com/aaronromeo/trashreaper/internal/reaper"
	"github.com/pkg/errors"
)

// Dialer opens sessions on the trash mailbox of one account.
type Dialer struct {
	Addr      string
	Username  string
	Password  string
	TLSConfig *tls.Config
	// TrashMailbox is detected from the server when empty.
	TrashMailbox string
	Log          *slog.Logger
}

// NewDialer builds a Dialer from the loaded configuration.
func NewDialer(cfg config.Config, logger *slog.Logger) *Dialer {
	var tlsConfig *tls.Config
	if cfg.InsecureSkipVerify {
		tlsConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	return &Dialer{
		Addr:         cfg.Addr(),
		Username:     cfg.Email,
		Password:     cfg.Password,
		TLSConfig:    tlsConfig,
		TrashMailbox: cfg.TrashMailbox,
		Log:          logger,
	}
}

// Connect implements reaper.Connector.
func (d *Dialer) Connect(ctx context.Context) (reaper.Session, error) {
	return d.Open(ctx)
}

// Open logs in and selects the trash mailbox read-write.
func (d *Dialer) Open(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := New(
		sessionmanager.WithAddr(d.Addr),
		sessionmanager.WithCreds(d.Username, d.Password),
		sessionmanager.WithTLSConfig(d.TLSConfig),
	)
	if err := client.Connect(ctx); err != nil {
		return nil, d.classify(err)
	}

	session := &Session{client: client, log: d.logger()}
	mailbox := d.TrashMailbox
	if mailbox == "" {
		found, err := client.FindTrashMailbox(ctx)
		if err != nil {
			_ = client.Close()
			return nil, errors.Wrap(err, "find trash mailbox")
		}
		session.log.Debug("detected trash mailbox", "mailbox", found)
		mailbox = found
	}
	session.mailbox = mailbox

	if err := session.selectTrash(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return session, nil
}

func (d *Dialer) classify(err error) error {
	var loginErr *sessionmanager.LoginError
	if errors.As(err, &loginErr) || errors.Is(err, sessionmanager.ErrMissingCredentials) {
		return &reaper.AuthenticationError{User: d.Username, Err: err}
	}
	return &reaper.ConnectionError{Addr: d.Addr, Err: err}
}

func (d *Dialer) logger() *slog.Logger {
	if d.Log == nil {
		return slog.Default()
	}
	return d.Log
}

// Session is an authenticated connection with the trash mailbox selected.
// It is not safe for concurrent use.
type Session struct {
	client   *Client
	mailbox  string
	messages uint32
	// pending holds UIDs flagged \Deleted since the last expunge.
	pending []uint32
	log     *slog.Logger
}

func (s *Session) Mailbox() string {
	return s.mailbox
}

// Messages is the message count reported when the trash was last selected.
func (s *Session) Messages() uint32 {
	return s.messages
}

func (s *Session) ListTrashMessageIDs(ctx context.Context) ([]uint32, error) {
	uids, err := s.client.SearchAllUIDs(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "search %s", s.mailbox)
	}
	return uids, nil
}

func (s *Session) DeleteMessages(ctx context.Context, ids []uint32) error {
	if err := s.client.MarkDeleted(ctx, ids); err != nil {
		return err
	}
	s.pending = append(s.pending, ids...)
	return nil
}

func (s *Session) ExpungeDeleted(ctx context.Context) error {
	if err := s.client.Expunge(ctx, s.pending); err != nil {
		return err
	}
	s.pending = nil
	return nil
}

// Recover pings the server and, when the ping fails, logs in again and
// re-selects the trash mailbox.
func (s *Session) Recover(ctx context.Context) error {
	if err := s.client.Noop(); err == nil {
		return nil
	}
	s.log.Info("connection lost, reconnecting", "mailbox", s.mailbox)
	if err := s.client.Reconnect(ctx); err != nil {
		return errors.Wrap(err, "reconnect")
	}
	return s.selectTrash(ctx)
}

func (s *Session) Close() error {
	return s.client.Close()
}

func (s *Session) selectTrash(ctx context.Context) error {
	data, err := s.client.SelectMailbox(ctx, s.mailbox)
	if err != nil {
		return errors.Wrapf(err, "select %s", s.mailbox)
	}
	s.messages = data.NumMessages
	return nil
}
