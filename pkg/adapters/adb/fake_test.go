package adb

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// fakeADB answers adb invocations from a script and records every call.
type fakeADB struct {
	mu      sync.Mutex
	calls   []string
	state   string
	dumps   [][]byte
	dumpErr error
	failOn  string
	output  map[string]string
}

func (f *fakeADB) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	line := strings.Join(args, " ")
	f.calls = append(f.calls, line)

	if f.failOn != "" && strings.Contains(line, f.failOn) {
		return nil, fmt.Errorf("exit status 1. Stderr: failed %s", f.failOn)
	}
	if strings.HasSuffix(line, "get-state") {
		return []byte(f.state + "\n"), nil
	}
	if strings.Contains(line, "uiautomator dump") {
		if f.dumpErr != nil {
			return nil, f.dumpErr
		}
		if len(f.dumps) == 0 {
			return nil, fmt.Errorf("no dump scripted")
		}
		d := f.dumps[0]
		if len(f.dumps) > 1 {
			f.dumps = f.dumps[1:]
		}
		return d, nil
	}
	for prefix, out := range f.output {
		if strings.Contains(line, prefix) {
			return []byte(out), nil
		}
	}
	return nil, nil
}

func (f *fakeADB) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeADB) shellCalls(substr string) []string {
	var out []string
	for _, c := range f.Calls() {
		if strings.Contains(c, substr) {
			out = append(out, c)
		}
	}
	return out
}
