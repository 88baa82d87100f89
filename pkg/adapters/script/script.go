// Package script replays recorded menu sessions from YAML files. A script
// declares the payment to arm and the sequence of screens the handset showed,
// optionally with the phase and input expected after each one.
package script

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/ussdpilot/pkg/adapters/memory"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/ports"
	"github.com/aretw0/ussdpilot/pkg/runner"
	"gopkg.in/yaml.v3"
)

// File is a replay script.
type File struct {
	Name    string                `yaml:"name"`
	Payment domain.PaymentRequest `yaml:"payment"`
	Screens []Screen              `yaml:"screens"`
}

// Screen is one recorded notification.
type Screen struct {
	Kind   domain.EventKind `yaml:"kind"`
	Root   *memory.NodeSpec `yaml:"root,omitempty"`
	Expect *Expect          `yaml:"expect,omitempty"`
}

// Expect is checked after the screen has been handled.
type Expect struct {
	Phase   domain.Phase   `yaml:"phase,omitempty"`
	Outcome domain.Outcome `yaml:"outcome,omitempty"`
	Input   *string        `yaml:"input,omitempty"`
}

// Load reads and parses a script file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return Parse(data)
}

// Parse decodes a script and applies defaults.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if len(f.Screens) == 0 {
		return nil, fmt.Errorf("script has no screens")
	}
	for i := range f.Screens {
		if f.Screens[i].Kind == "" {
			f.Screens[i].Kind = domain.EventContentChanged
		}
	}
	return &f, nil
}

// Trees builds a fresh in-memory tree for every screen. Screens without a
// root get a nil tree.
func (f *File) Trees() []*memory.Tree {
	trees := make([]*memory.Tree, len(f.Screens))
	for i, sc := range f.Screens {
		if sc.Root != nil {
			trees[i] = memory.NewTree(*sc.Root)
		}
	}
	return trees
}

// Host returns a host delivering the script's screens in order.
func (f *File) Host() *memory.Host {
	trees := f.Trees()
	screens := make([]memory.Screen, len(f.Screens))
	for i, sc := range f.Screens {
		screens[i] = memory.Screen{Kind: sc.Kind, Tree: trees[i]}
	}
	return memory.NewHost(screens...)
}

// Handler processes a single notification.
type Handler interface {
	Handle(ctx context.Context, ev ports.Event) runner.Result
}

// Step reports what happened on one screen.
type Step struct {
	Index    int
	Kind     domain.EventKind
	Result   runner.Result
	Actions  []memory.Action
	Mismatch string
}

// Replay feeds every screen to h and checks expectations. It stops early
// when ctx is done.
func Replay(ctx context.Context, h Handler, f *File) ([]Step, error) {
	trees := f.Trees()
	steps := make([]Step, 0, len(f.Screens))
	for i, sc := range f.Screens {
		if err := ctx.Err(); err != nil {
			return steps, err
		}
		ev := ports.Event{Kind: sc.Kind}
		if trees[i] != nil {
			ev.Source = trees[i].Root()
		}

		step := Step{Index: i, Kind: sc.Kind, Result: h.Handle(ctx, ev)}
		if trees[i] != nil {
			step.Actions = trees[i].Actions()
			if n := trees[i].Outstanding(); n != 0 {
				return steps, fmt.Errorf("screen %d: %d node handles leaked", i, n)
			}
			if n := trees[i].DoubleReleases(); n != 0 {
				return steps, fmt.Errorf("screen %d: %d node handles released twice", i, n)
			}
		}
		step.Mismatch = sc.Expect.check(step.Result)
		steps = append(steps, step)
	}
	return steps, nil
}

// Failed reports whether any step missed its expectation.
func Failed(steps []Step) bool {
	for _, s := range steps {
		if s.Mismatch != "" {
			return true
		}
	}
	return false
}

func (e *Expect) check(res runner.Result) string {
	if e == nil {
		return ""
	}
	if e.Phase != "" && res.Phase != e.Phase {
		return fmt.Sprintf("phase %s, want %s", res.Phase, e.Phase)
	}
	if e.Outcome != "" && res.Outcome != e.Outcome {
		return fmt.Sprintf("outcome %s, want %s", res.Outcome, e.Outcome)
	}
	if e.Input != nil && res.Input != *e.Input {
		return fmt.Sprintf("input %q, want %q", res.Input, *e.Input)
	}
	return ""
}
