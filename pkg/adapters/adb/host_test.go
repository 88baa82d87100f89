package adb

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, events <-chan ports.Event) ports.Event {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "stream closed early")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
		return ports.Event{}
	}
}

func TestHost_Events(t *testing.T) {
	menu := loadDump(t, "ussd_menu.xml")
	amount := []byte(strings.Replace(string(menu), "1. Send Money&#10;2. Request Money&#10;3. Check Balance", "Enter Amount", 1))
	fake := &fakeADB{
		state: "device",
		dumps: [][]byte{menu, menu, amount, loadDump(t, "launcher.xml")},
	}
	host := NewHost(New(WithCommander(fake)), WithInterval(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := host.Events(ctx)
	require.NoError(t, err)

	ev := receive(t, events)
	assert.Equal(t, domain.EventSurfaceChanged, ev.Kind)
	assert.Equal(t, "com.android.phone", ev.Source.Owner())

	ev = receive(t, events)
	assert.Equal(t, domain.EventContentChanged, ev.Kind)
	child, ok := ev.Source.Child(0)
	require.True(t, ok)
	assert.Equal(t, "Enter Amount", child.Label())

	ev = receive(t, events)
	assert.Equal(t, domain.EventSurfaceChanged, ev.Kind)
	assert.Equal(t, "com.android.launcher3", ev.Source.Owner())

	cancel()
	for range events {
	}
}

func TestHost_FailsFastWithoutDevice(t *testing.T) {
	host := NewHost(New(WithCommander(&fakeADB{failOn: "get-state"})))

	_, err := host.Events(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHost_SkipsFailedDumps(t *testing.T) {
	fake := &fakeADB{
		state: "device",
		dumps: [][]byte{[]byte("not xml <at all>"), loadDump(t, "launcher.xml")},
	}
	host := NewHost(New(WithCommander(fake), WithDumpRetries(0, 0)), WithInterval(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := host.Events(ctx)
	require.NoError(t, err)

	ev := receive(t, events)
	assert.Equal(t, domain.EventSurfaceChanged, ev.Kind)
	assert.Equal(t, "com.android.launcher3", ev.Source.Owner())
}
