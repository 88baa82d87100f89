package adb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Check(t *testing.T) {
	tests := []struct {
		name    string
		fake    *fakeADB
		wantErr bool
	}{
		{"Online", &fakeADB{state: "device"}, false},
		{"Offline", &fakeADB{state: "offline"}, true},
		{"Missing Binary", &fakeADB{failOn: "get-state"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(WithCommander(tt.fake), WithSerial("emulator-5554"))
			err := c.Check(context.Background())
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnavailable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{"-s emulator-5554 get-state"}, tt.fake.Calls())
		})
	}
}

func TestClient_Dump_Retries(t *testing.T) {
	fake := &fakeADB{dumps: [][]byte{[]byte("ERROR: null root node returned by UiTestAutomationBridge."), []byte("<hierarchy/>")}}
	c := New(WithCommander(fake), WithDumpRetries(2, time.Millisecond))

	out, err := c.Dump(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "<hierarchy/>", string(out))
	assert.Len(t, fake.shellCalls("uiautomator dump"), 2)
}

func TestClient_Dump_GivesUp(t *testing.T) {
	fake := &fakeADB{dumpErr: errors.New("device offline")}
	c := New(WithCommander(fake), WithDumpRetries(1, time.Millisecond))

	_, err := c.Dump(context.Background())
	assert.ErrorContains(t, err, "after 2 attempts")
	assert.ErrorContains(t, err, "device offline")
}

func TestEscapeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"500", "500"},
		{"foo@bank", "foo@bank"},
		{"a b", "a%sb"},
		{"x&y;z", `x\&y\;z`},
		{"it's", `it\'s`},
		{"$(id)", `\$\(id\)`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeInput(tt.in), tt.in)
	}
}

func TestClient_InputAndDelete(t *testing.T) {
	fake := &fakeADB{}
	c := New(WithCommander(fake))
	ctx := context.Background()

	require.NoError(t, c.InputText(ctx, ""))
	require.NoError(t, c.DeleteChars(ctx, 0))
	assert.Empty(t, fake.Calls())

	require.NoError(t, c.DeleteChars(ctx, 3))
	require.NoError(t, c.InputText(ctx, "foo bar"))
	assert.Equal(t, []string{
		"shell input keyevent 67 67 67",
		"shell input text foo%sbar",
	}, fake.Calls())
}
