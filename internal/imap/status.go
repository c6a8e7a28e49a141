package imap

import (
	"context"
	"sort"
)

// TrashStatus describes the trash mailbox without modifying it.
type TrashStatus struct {
	Mailbox  string
	Messages uint32
	Folders  []string
}

// Inspect connects, reports the trash mailbox and its size, and optionally
// lists every folder of the account.
func Inspect(ctx context.Context, d *Dialer, withFolders bool) (TrashStatus, error) {
	session, err := d.Open(ctx)
	if err != nil {
		return TrashStatus{}, err
	}
	defer session.Close()

	status := TrashStatus{
		Mailbox:  session.Mailbox(),
		Messages: session.Messages(),
	}
	if !withFolders {
		return status, nil
	}

	mailboxes, err := session.client.ListMailboxes(ctx)
	if err != nil {
		return TrashStatus{}, err
	}
	for _, mbox := range mailboxes {
		status.Folders = append(status.Folders, mbox.Mailbox)
	}
	sort.Strings(status.Folders)
	return status, nil
}
