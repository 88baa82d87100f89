package adb

import (
	"context"
	"fmt"
	"strings"
)

// Dialer opens a call through the device's CALL intent.
type Dialer struct {
	client *Client
}

// NewDialer creates a Dialer for the client's device.
func NewDialer(client *Client) *Dialer {
	return &Dialer{client: client}
}

// Dial implements ports.Dialer. The # of menu codes is percent-encoded so the
// intent keeps it.
func (d *Dialer) Dial(ctx context.Context, target string) error {
	if strings.TrimSpace(target) == "" {
		return fmt.Errorf("empty dial target")
	}
	uri := "tel:" + strings.ReplaceAll(strings.TrimSpace(target), "#", "%23")
	out, err := d.client.Shell(ctx, "am start -a android.intent.action.CALL -d "+uri)
	if err != nil {
		return err
	}
	if strings.Contains(string(out), "Error") {
		return fmt.Errorf("activity manager rejected call: %s", strings.TrimSpace(string(out)))
	}
	return nil
}
