package imap

import (
	"context"
	"crypto/tls"
	"testing"
	"time"

	"github.com/aaronromeo/trashreaper/ftest"
	"github.com/aaronromeo/trashreaper/internal/config"
	"github.com/aaronromeo/trashreaper/internal/imap/selectors"
	"github.com/aaronromeo/trashreaper/internal/reaper"
	"github.com/aaronromeo/trashreaper/pkg/mock"
	"github.com/emersion/go-imap/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDialer(t *testing.T, fixture ftest.Fixture, trash string) *Dialer {
	t.Helper()
	return &Dialer{
		Addr:         fixture.Addr,
		Username:     ftest.DefaultUser,
		Password:     ftest.DefaultPass,
		TLSConfig:    &tls.Config{InsecureSkipVerify: true},
		TrashMailbox: trash,
		Log:          mock.SetupLogger(t),
	}
}

func openSession(t *testing.T, d *Dialer) *Session {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	session, err := d.Open(ctx)
	require.NoError(t, err, "open session")
	t.Cleanup(func() {
		_ = session.Close()
	})
	return session
}

func TestListTrashMessageIDsLocalServer(t *testing.T) {
	fixture, cleanup := ftest.SetupIMAPServer(t, ftest.ServerOptions{TrashMessages: 5, InboxMessages: 2})
	t.Cleanup(cleanup)

	session := openSession(t, testDialer(t, fixture, ""))
	assert.Equal(t, ftest.DefaultTrash, session.Mailbox(), "trash detected by name")
	assert.Equal(t, uint32(5), session.Messages())

	ids, err := session.ListTrashMessageIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fixture.TrashUIDs, ids)
}

func TestDeleteAndExpungeLocalServer(t *testing.T) {
	cases := []struct {
		name string
		caps imap.CapSet
	}{
		{name: "uidplus", caps: ftest.UIDPlusCaps()},
		{name: "expunge", caps: nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fixture, cleanup := ftest.SetupIMAPServer(t, ftest.ServerOptions{
				Caps:          tc.caps,
				TrashMessages: 6,
				InboxMessages: 3,
			})
			t.Cleanup(cleanup)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			t.Cleanup(cancel)

			session := openSession(t, testDialer(t, fixture, ftest.DefaultTrash))

			batch := fixture.TrashUIDs[:4]
			require.NoError(t, session.DeleteMessages(ctx, batch))
			require.NoError(t, session.ExpungeDeleted(ctx))

			remaining, err := session.ListTrashMessageIDs(ctx)
			require.NoError(t, err)
			assert.ElementsMatch(t, fixture.TrashUIDs[4:], remaining)

			inbox := openSession(t, testDialer(t, fixture, "INBOX"))
			inboxIDs, err := inbox.ListTrashMessageIDs(ctx)
			require.NoError(t, err)
			assert.ElementsMatch(t, fixture.InboxUIDs, inboxIDs, "inbox must be untouched")
		})
	}
}

func TestReaperEmptiesTrashLocalServer(t *testing.T) {
	fixture, cleanup := ftest.SetupIMAPServer(t, ftest.ServerOptions{
		Caps:          ftest.UIDPlusCaps(),
		TrashMessages: 12,
		InboxMessages: 1,
	})
	t.Cleanup(cleanup)

	cfg := config.Default()
	cfg.BatchSize = 5
	cfg.MaxRetries = 1

	var reports []int
	r, err := reaper.New(testDialer(t, fixture, ""), cfg,
		reaper.WithLogger(mock.SetupLogger(t)),
		reaper.WithProgress(reaper.ProgressFunc(func(done, _ int) { reports = append(reports, done) })),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	result, err := r.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, reaper.CycleResult{Deleted: 12, Total: 12, Batches: 3}, result)
	assert.Equal(t, []int{5, 10, 12}, reports)

	after := openSession(t, testDialer(t, fixture, ""))
	ids, err := after.ListTrashMessageIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	second, err := r.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Deleted)
}

func TestOpenWrongPasswordIsAuthenticationError(t *testing.T) {
	fixture, cleanup := ftest.SetupIMAPServer(t, ftest.ServerOptions{})
	t.Cleanup(cleanup)

	d := testDialer(t, fixture, "")
	d.Password = "wrong"

	_, err := d.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, reaper.IsAuthError(err), "got %v", err)
}

func TestOpenUnreachableServerIsConnectionError(t *testing.T) {
	fixture, cleanup := ftest.SetupIMAPServer(t, ftest.ServerOptions{})
	cleanup()

	_, err := testDialer(t, fixture, "").Connect(context.Background())
	require.Error(t, err)
	assert.True(t, reaper.IsConnectionError(err), "got %v", err)
	assert.False(t, reaper.IsAuthError(err))
}

func TestOpenWithoutTrashMailbox(t *testing.T) {
	fixture, cleanup := ftest.SetupIMAPServer(t, ftest.ServerOptions{NoTrash: true, ExtraFolders: []string{"Archive"}})
	t.Cleanup(cleanup)

	_, err := testDialer(t, fixture, "").Open(context.Background())
	assert.ErrorIs(t, err, selectors.ErrTrashNotFound)
}

func TestOpenConfiguredTrashMailbox(t *testing.T) {
	fixture, cleanup := ftest.SetupIMAPServer(t, ftest.ServerOptions{TrashMailbox: "Deleted Items", TrashMessages: 2})
	t.Cleanup(cleanup)

	session := openSession(t, testDialer(t, fixture, "Deleted Items"))
	ids, err := session.ListTrashMessageIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fixture.TrashUIDs, ids)
}

func TestRecoverReconnectsClosedConnection(t *testing.T) {
	fixture, cleanup := ftest.SetupIMAPServer(t, ftest.ServerOptions{TrashMessages: 3})
	t.Cleanup(cleanup)

	ctx := context.Background()
	session := openSession(t, testDialer(t, fixture, ""))

	// Simulate a dropped connection.
	require.NoError(t, session.client.IMAPClient().Close())

	require.NoError(t, session.Recover(ctx))
	ids, err := session.ListTrashMessageIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, fixture.TrashUIDs, ids)
}

func TestInspectLocalServer(t *testing.T) {
	fixture, cleanup := ftest.SetupIMAPServer(t, ftest.ServerOptions{
		TrashMessages: 4,
		ExtraFolders:  []string{"Archive"},
	})
	t.Cleanup(cleanup)

	status, err := Inspect(context.Background(), testDialer(t, fixture, ""), true)
	require.NoError(t, err)
	assert.Equal(t, ftest.DefaultTrash, status.Mailbox)
	assert.Equal(t, uint32(4), status.Messages)
	assert.Equal(t, []string{"Archive", "INBOX", ftest.DefaultTrash}, status.Folders)
}

func TestNewDialerFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Email = "user@example.com"
	cfg.Password = "secret"
	cfg.TrashMailbox = "Trash"

	d := NewDialer(cfg, nil)
	assert.Equal(t, "imap.gmail.com:993", d.Addr)
	assert.Equal(t, "Trash", d.TrashMailbox)
	assert.Nil(t, d.TLSConfig)

	cfg.InsecureSkipVerify = true
	d = NewDialer(cfg, nil)
	require.NotNil(t, d.TLSConfig)
	assert.True(t, d.TLSConfig.InsecureSkipVerify)
}
