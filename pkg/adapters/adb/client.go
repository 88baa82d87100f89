package adb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/ussdpilot/internal/logging"
	"github.com/aretw0/ussdpilot/pkg/adapters/process"
)

// ErrUnavailable is returned when adb is missing or no device answers.
var ErrUnavailable = errors.New("adb unavailable")

// Commander executes a local binary and returns its stdout.
type Commander interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Client issues adb commands against a single device.
type Client struct {
	cmd      Commander
	binary   string
	serial   string
	dumpPath string
	retries  int
	backoff  time.Duration
	logger   *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithSerial targets a specific device (adb -s).
func WithSerial(serial string) Option {
	return func(c *Client) {
		c.serial = serial
	}
}

// WithBinary overrides the adb executable name.
func WithBinary(binary string) Option {
	return func(c *Client) {
		c.binary = binary
	}
}

// WithDumpPath sets the device path uiautomator writes its dump to.
func WithDumpPath(path string) Option {
	return func(c *Client) {
		c.dumpPath = path
	}
}

// WithCommander replaces the process runner.
func WithCommander(cmd Commander) Option {
	return func(c *Client) {
		c.cmd = cmd
	}
}

// WithDumpRetries sets how often a flaky hierarchy dump is retried.
func WithDumpRetries(retries int, backoff time.Duration) Option {
	return func(c *Client) {
		c.retries = retries
		c.backoff = backoff
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client. By default it runs the "adb" binary found on PATH.
func New(opts ...Option) *Client {
	c := &Client{
		binary:   "adb",
		dumpPath: "/data/local/tmp/ussdpilot.xml",
		retries:  3,
		backoff:  500 * time.Millisecond,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cmd == nil {
		c.cmd = process.NewRunner([]string{c.binary})
	}
	return c
}

// Serial returns the targeted device serial, empty for the default device.
func (c *Client) Serial() string {
	return c.serial
}

func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	if c.serial != "" {
		args = append([]string{"-s", c.serial}, args...)
	}
	return c.cmd.Run(ctx, c.binary, args...)
}

// Check verifies that adb is installed and the device is online.
func (c *Client) Check(ctx context.Context) error {
	out, err := c.run(ctx, "get-state")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if state := strings.TrimSpace(string(out)); state != "device" {
		return fmt.Errorf("%w: device state %q", ErrUnavailable, state)
	}
	return nil
}

// Shell runs a command line on the device.
func (c *Client) Shell(ctx context.Context, cmdline string) ([]byte, error) {
	return c.run(ctx, "shell", cmdline)
}

// Dump returns the current window hierarchy as uiautomator XML.
func (c *Client) Dump(ctx context.Context) ([]byte, error) {
	cmdline := fmt.Sprintf("uiautomator dump %s >/dev/null && cat %s", c.dumpPath, c.dumpPath)

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff):
			}
		}
		out, err := c.Shell(ctx, cmdline)
		if err == nil && bytes.Contains(out, []byte("<hierarchy")) {
			return out, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err == nil {
			err = errors.New("no hierarchy in dump output")
		}
		lastErr = err
		c.logger.DebugContext(ctx, "hierarchy dump retry", "attempt", attempt+1, "err", err)
	}
	return nil, fmt.Errorf("failed to dump hierarchy after %d attempts: %w", c.retries+1, lastErr)
}

// Tap touches the screen at x, y.
func (c *Client) Tap(ctx context.Context, x, y int) error {
	_, err := c.Shell(ctx, fmt.Sprintf("input tap %d %d", x, y))
	return err
}

// DeleteChars sends n backspaces to the focused field.
func (c *Client) DeleteChars(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	codes := make([]string, n)
	for i := range codes {
		codes[i] = strconv.Itoa(keycodeDel)
	}
	_, err := c.Shell(ctx, "input keyevent "+strings.Join(codes, " "))
	return err
}

// InputText types text into the focused field.
func (c *Client) InputText(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	_, err := c.Shell(ctx, "input text "+escapeInput(text))
	return err
}

const keycodeDel = 67

// escapeInput quotes text for "input text": spaces become %s and shell
// metacharacters are backslash-escaped.
func escapeInput(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch {
		case r == ' ':
			b.WriteString("%s")
		case strings.ContainsRune(`\'"()&<>;|*~$#?!{}[]`+"`", r):
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
