package sessionmanager

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/aaronromeo/trashreaper/internal/imap/base"
	"github.com/emersion/go-imap/v2"
	giimapclient "github.com/emersion/go-imap/v2/imapclient"
)

// ErrMissingCredentials is returned by Connect before dialing when the
// username or password is empty.
var ErrMissingCredentials = errors.New("IMAP credentials are required")

// DefaultDialTimeout bounds the TCP connect and TLS handshake.
const DefaultDialTimeout = 30 * time.Second

type Option func(*IMAPConnector)

type ServerConnector interface {
	Connect(ctx context.Context) error
	Reconnect(ctx context.Context) error
	Noop() error
	Close() error

	IMAPClient() *giimapclient.Client
}

// LoginError means the server answered LOGIN with a NO or BAD response.
type LoginError struct {
	Username string
	Err      error
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("login rejected for %s: %v", e.Username, e.Err)
}

func (e *LoginError) Unwrap() error {
	return e.Err
}

type IMAPConnector struct {
	Addr      string
	Username  string
	Password  string
	TLSConfig   *tls.Config
	DialTimeout time.Duration

	base.State
}

func WithAddr(a string) Option {
	return func(c *IMAPConnector) {
		c.Addr = a
	}
}

func WithCreds(username string, password string) Option {
	return func(c *IMAPConnector) {
		c.Username = username
		c.Password = password
	}
}

func WithTLSConfig(config *tls.Config) Option {
	return func(state *IMAPConnector) {
		state.TLSConfig = config
	}
}

// WithDialTimeout overrides DefaultDialTimeout.
func WithDialTimeout(timeout time.Duration) Option {
	return func(state *IMAPConnector) {
		state.DialTimeout = timeout
	}
}

func NewServerConnector(opts ...Option) *IMAPConnector {
	c := &IMAPConnector{DialTimeout: DefaultDialTimeout}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *IMAPConnector) IMAPClient() *giimapclient.Client {
	return c.Client
}

// Connect establishes the IMAP connection over TLS and logs in. Cancelling ctx
// aborts the dial and the TLS handshake.
func (c *IMAPConnector) Connect(ctx context.Context) error {
	if err := validateDeps(c); err != nil {
		return err
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	client := giimapclient.New(conn, nil)

	if err := client.Login(c.Username, c.Password).Wait(); err != nil {
		_ = client.Close()
		var imapErr *imap.Error
		if errors.As(err, &imapErr) {
			return &LoginError{Username: c.Username, Err: err}
		}
		return err
	}

	c.Client = client
	return nil
}

// Reconnect drops the current connection, if any, and logs in again.
func (c *IMAPConnector) Reconnect(ctx context.Context) error {
	if c.Client != nil {
		_ = c.Client.Close()
		c.Client = nil
	}
	return c.Connect(ctx)
}

func (c *IMAPConnector) dial(ctx context.Context) (net.Conn, error) {
	config := c.TLSConfig
	if config == nil {
		config = &tls.Config{}
	}
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: c.DialTimeout},
		Config:    config,
	}
	return dialer.DialContext(ctx, "tcp", c.Addr)
}

// Noop checks that the server is still answering.
func (c *IMAPConnector) Noop() error {
	if c.Client == nil {
		return errors.New("IMAP client is not connected")
	}
	return c.Client.Noop().Wait()
}

// Close logs out and clears the connection.
func (c *IMAPConnector) Close() error {
	if c.Client == nil {
		return nil
	}
	err := c.Client.Logout().Wait()
	_ = c.Client.Close()
	c.Client = nil
	return err
}

func validateDeps(state *IMAPConnector) error {
	if strings.TrimSpace(state.Addr) == "" {
		return errors.New("IMAP address is required")
	}
	if strings.TrimSpace(state.Username) == "" || strings.TrimSpace(state.Password) == "" {
		return ErrMissingCredentials
	}

	return nil
}
