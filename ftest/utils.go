package ftest

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"io"
	"math/big"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
	giimapserver "github.com/emersion/go-imap/v2/imapserver"
	giimapmemserver "github.com/emersion/go-imap/v2/imapserver/imapmemserver"
	"github.com/emersion/go-message/mail"
)

const (
	DefaultUser  = "user@example.com"
	DefaultPass  = "password"
	DefaultTrash = "[Gmail]/Trash"
)

// ServerOptions describes the mailbox layout seeded into the test server.
type ServerOptions struct {
	Caps imap.CapSet
	// TrashMailbox defaults to DefaultTrash. Set NoTrash to skip creating it.
	TrashMailbox  string
	NoTrash       bool
	TrashMessages int
	InboxMessages int
	ExtraFolders  []string
}

// Fixture is the seeded state of a running test server.
type Fixture struct {
	Addr      string
	Trash     string
	TrashUIDs []uint32
	InboxUIDs []uint32
}

// SetupIMAPServer starts an in-memory IMAP server over TLS on a random port.
func SetupIMAPServer(t *testing.T, opts ServerOptions) (Fixture, func()) {
	t.Helper()

	tlsConfig := testTLSConfig(t)
	mem := giimapmemserver.New()
	user := giimapmemserver.NewUser(DefaultUser, DefaultPass)
	mem.AddUser(user)

	fixture := Fixture{Trash: opts.TrashMailbox}
	if fixture.Trash == "" {
		fixture.Trash = DefaultTrash
	}

	if err := user.Create("INBOX", nil); err != nil {
		t.Fatalf("create mailbox: %v", err)
	}
	folders := append([]string{}, opts.ExtraFolders...)
	if !opts.NoTrash {
		folders = append(folders, fixture.Trash)
	}
	for _, mailbox := range folders {
		if strings.TrimSpace(mailbox) == "" {
			continue
		}
		if err := user.Create(mailbox, nil); err != nil {
			t.Fatalf("create mailbox %q: %v", mailbox, err)
		}
	}

	for i := 0; i < opts.InboxMessages; i++ {
		fixture.InboxUIDs = append(fixture.InboxUIDs, appendMessage(t, user, "INBOX", i))
	}
	if !opts.NoTrash {
		for i := 0; i < opts.TrashMessages; i++ {
			fixture.TrashUIDs = append(fixture.TrashUIDs, appendMessage(t, user, fixture.Trash, i))
		}
	}

	server := giimapserver.New(&giimapserver.Options{
		NewSession: func(*giimapserver.Conn) (giimapserver.Session, *giimapserver.GreetingData, error) {
			return mem.NewSession(), nil, nil
		},
		Caps:         opts.Caps,
		TLSConfig:    tlsConfig,
		InsecureAuth: true,
	})

	ln, err := tls.Listen("tcp", "127.0.0.1:0", tlsConfig)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	cleanup := func() {
		_ = server.Close()
		_ = ln.Close()
		select {
		case <-errCh:
		default:
		}
	}

	fixture.Addr = ln.Addr().String()
	return fixture, cleanup
}

// UIDPlusCaps advertises UIDPLUS so clients use UID EXPUNGE.
func UIDPlusCaps() imap.CapSet {
	return imap.CapSet{
		imap.CapIMAP4rev1: {},
		imap.CapUIDPlus:   {},
	}
}

func appendMessage(t *testing.T, user *giimapmemserver.User, mailbox string, n int) uint32 {
	t.Helper()
	raw := sampleMessage(t,
		fmt.Sprintf("sender%d@example.org", n),
		DefaultUser,
		fmt.Sprintf("Message %d", n),
		"Nothing to see here.",
	)
	data, err := user.Append(mailbox, newLiteral(t, raw), &imap.AppendOptions{
		Time:  time.Now().Add(-time.Duration(n) * time.Minute),
		Flags: []imap.Flag{imap.FlagSeen},
	})
	if err != nil {
		t.Fatalf("append message to %q: %v", mailbox, err)
	}
	return uint32(data.UID)
}

type literalReader struct {
	*bytes.Reader
	size int64
}

func newLiteral(t *testing.T, raw string) imap.LiteralReader {
	t.Helper()
	buf := []byte(raw)
	return &literalReader{
		Reader: bytes.NewReader(buf),
		size:   int64(len(buf)),
	}
}

func (lr *literalReader) Size() int64 {
	return lr.size
}

func sampleMessage(t *testing.T, from, to, subject, body string) string {
	t.Helper()

	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{{Address: from}})
	h.SetAddressList("To", []*mail.Address{{Address: to}})
	h.SetSubject(subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		t.Fatalf("create message writer: %v", err)
	}
	if _, err := io.WriteString(w, body+"\r\n"); err != nil {
		t.Fatalf("write message body: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close message writer: %v", err)
	}
	return buf.String()
}

func testTLSConfig(t *testing.T) *tls.Config {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		t.Fatalf("generate serial: %v", err)
	}

	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName: "localhost",
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create cert: %v", err)
	}

	cert := tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{"imap"},
	}
}
