package announcer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aaronromeo/trashreaper/internal/reaper"
)

const webhookAnnouncePath = "/announcements"

type Option func(*webhookAnnouncer)

func WithWebhookURL(webhookURL string) Option {
	return func(wa *webhookAnnouncer) {
		wa.baseURL = strings.TrimSpace(webhookURL)
	}
}

// WithAccount names the mailbox owner in every message.
func WithAccount(account string) Option {
	return func(wa *webhookAnnouncer) {
		wa.account = account
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(wa *webhookAnnouncer) {
		wa.client = client
	}
}

type webhookAnnouncer struct {
	baseURL string
	account string
	client  *http.Client
}

func New(opts ...Option) *webhookAnnouncer {
	announcer := &webhookAnnouncer{
		client: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(announcer)
	}
	return announcer
}

// Announce posts the cycle outcome to the webhook. Successful cycles that
// found an empty trash are not announced.
func (w *webhookAnnouncer) Announce(ctx context.Context, result reaper.CycleResult, cycleErr error) error {
	if w.baseURL == "" {
		return nil
	}
	if cycleErr == nil && result.Total == 0 {
		return nil
	}

	payload, err := json.Marshal(map[string]string{"message": Message(w.account, result, cycleErr)})
	if err != nil {
		return err
	}

	baseURL := strings.TrimRight(w.baseURL, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+webhookAnnouncePath, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("reporting webhook returned status %s", resp.Status)
	}
	return nil
}

// Message renders a one-line, human readable cycle summary.
func Message(account string, result reaper.CycleResult, err error) string {
	if account == "" {
		account = "mailbox"
	}
	if err != nil {
		return fmt.Sprintf("trash cleanup for %s failed after deleting %d of %d messages: %v", account, result.Deleted, result.Total, err)
	}
	return fmt.Sprintf("trash cleanup for %s deleted %d messages", account, result.Deleted)
}
