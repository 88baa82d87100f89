package runner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/ussdpilot/internal/runtime"
	"github.com/aretw0/ussdpilot/pkg/adapters/memory"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/ports"
	"github.com/aretw0/ussdpilot/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClassifier records the text handed to the decision port.
type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Classify(ctx context.Context, text string) (string, bool) {
	args := m.Called(text)
	return args.String(0), args.Bool(1)
}

func (m *MockClassifier) Phase() domain.Phase {
	return domain.PhaseIdle
}

func dialog(prompt string, extra ...memory.NodeSpec) *memory.Tree {
	children := []memory.NodeSpec{
		{Label: prompt, Role: "android.widget.TextView"},
		{Role: "android.widget.EditText", Editable: true},
	}
	children = append(children, extra...)
	children = append(children,
		memory.NodeSpec{Label: "Cancel", Role: "android.widget.Button"},
		memory.NodeSpec{Label: "Send", Role: "android.widget.Button"},
	)
	return memory.NewTree(memory.NodeSpec{
		Owner:    "com.android.phone",
		Role:     "android.app.AlertDialog",
		Children: children,
	})
}

func armedSession(t *testing.T) *runtime.Session {
	t.Helper()
	s := runtime.NewSession()
	req, err := domain.NewPaymentRequest("500", "foo@bank", "")
	require.NoError(t, err)
	s.Arm(context.Background(), req)
	return s
}

func TestRunner_Handle_Outcomes(t *testing.T) {
	tests := []struct {
		name    string
		kind    domain.EventKind
		tree    *memory.Tree
		outcome domain.Outcome
	}{
		{"Ignored Kind", domain.EventClicked, dialog("1. Send Money"), domain.OutcomeIgnored},
		{"Focus Kind", domain.EventFocusChanged, dialog("1. Send Money"), domain.OutcomeIgnored},
		{"No Source", domain.EventContentChanged, nil, domain.OutcomeNoSource},
		{"Not Dialog", domain.EventSurfaceChanged, memory.NewTree(memory.NodeSpec{
			Owner:    "com.android.launcher3",
			Children: []memory.NodeSpec{{Label: "1. Send Money"}},
		}), domain.OutcomeNotDialog},
		{"Empty Text", domain.EventContentChanged, memory.NewTree(memory.NodeSpec{
			Owner:    "com.android.phone",
			Children: []memory.NodeSpec{{Role: "android.widget.EditText", Editable: true}},
		}), domain.OutcomeEmptyText},
		{"No Input", domain.EventContentChanged, dialog("Enter PIN"), domain.OutcomeNoInput},
		{"Injected", domain.EventSurfaceChanged, dialog("1. Send Money"), domain.OutcomeInjected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := runner.New(armedSession(t))
			ev := ports.Event{Kind: tt.kind}
			if tt.tree != nil {
				ev.Source = tt.tree.Root()
			}

			res := r.Handle(context.Background(), ev)

			assert.Equal(t, tt.outcome, res.Outcome)
			if tt.tree != nil {
				assert.Equal(t, 0, tt.tree.Outstanding(), "every handle released")
				assert.Equal(t, 0, tt.tree.DoubleReleases())
				if tt.outcome != domain.OutcomeInjected {
					assert.Empty(t, tt.tree.Actions(), "no mutation on early exits")
				}
			}
		})
	}
}

func TestRunner_Handle_InjectsAndConfirms(t *testing.T) {
	session := armedSession(t)
	r := runner.New(session)
	tree := dialog("Please Enter UPI ID or Mobile",
		memory.NodeSpec{Role: "android.widget.EditText", Editable: true},
	)

	res := r.Handle(context.Background(), ports.Event{Kind: domain.EventContentChanged, Source: tree.Root()})

	assert.Equal(t, domain.OutcomeInjected, res.Outcome)
	assert.Equal(t, domain.PhaseEnterDestination, res.Phase)
	assert.Equal(t, "foo@bank", res.Input)
	assert.Equal(t, 2, res.Filled)
	assert.True(t, res.Activated)
	assert.Equal(t, "Send", res.Button)
	assert.NoError(t, res.Err)

	assert.Equal(t, []memory.Action{
		{Kind: memory.ActionSetText, Role: "android.widget.EditText", Text: "foo@bank"},
		{Kind: memory.ActionSetText, Role: "android.widget.EditText", Text: "foo@bank"},
		{Kind: memory.ActionActivate, Role: "android.widget.Button", Label: "Send"},
	}, tree.Actions())
	assert.Equal(t, 0, tree.Outstanding())
}

func TestRunner_Handle_PassesExtractedText(t *testing.T) {
	m := new(MockClassifier)
	m.On("Classify", "Enter Amount ").Return("", false).Once()
	r := runner.New(m)

	tree := memory.NewTree(memory.NodeSpec{
		Owner:    "com.android.phone",
		Children: []memory.NodeSpec{{Label: "Enter"}, {Label: "Amount"}},
	})
	res := r.Handle(context.Background(), ports.Event{Kind: domain.EventContentChanged, Source: tree.Root()})

	m.AssertExpectations(t)
	assert.Equal(t, "Enter Amount ", res.Text)
	assert.Equal(t, domain.OutcomeNoInput, res.Outcome)
}

func TestRunner_Handle_HostFailuresDoNotStop(t *testing.T) {
	session := armedSession(t)
	r := runner.New(session)
	tree := dialog("Enter Amount")
	tree.FailActions(errors.New("adb: device offline"))

	res := r.Handle(context.Background(), ports.Event{Kind: domain.EventContentChanged, Source: tree.Root()})

	assert.Equal(t, domain.OutcomeInjected, res.Outcome)
	assert.Equal(t, domain.PhaseEnterAmount, res.Phase)
	assert.Zero(t, res.Filled)
	assert.False(t, res.Activated)
	assert.Error(t, res.Err)
	assert.Equal(t, 0, tree.Outstanding())
}

func TestRunner_Hooks(t *testing.T) {
	var dispatches []domain.DispatchEvent
	var injects []domain.InjectEvent
	r := runner.New(armedSession(t), runner.WithLifecycleHooks(domain.LifecycleHooks{
		OnDispatch: func(_ context.Context, e *domain.DispatchEvent) { dispatches = append(dispatches, *e) },
		OnInject:   func(_ context.Context, e *domain.InjectEvent) { injects = append(injects, *e) },
	}))

	r.Handle(context.Background(), ports.Event{Kind: domain.EventScrolled})
	r.Handle(context.Background(), ports.Event{Kind: domain.EventSurfaceChanged, Source: dialog("1. Send Money").Root()})

	require.Len(t, dispatches, 2)
	assert.Equal(t, domain.OutcomeIgnored, dispatches[0].Outcome)
	assert.Equal(t, domain.OutcomeInjected, dispatches[1].Outcome)
	assert.Equal(t, domain.PhaseMenuMain, dispatches[1].Phase)

	require.Len(t, injects, 1)
	assert.Equal(t, 1, injects[0].Fields)
	assert.True(t, injects[0].Activated)
	assert.Equal(t, "Send", injects[0].Button)
}

func TestRunner_WithProfile(t *testing.T) {
	profile := domain.DefaultDialogProfile()
	profile.Owners = []string{"com.oem.ussd"}
	profile.RoleMarkers = nil
	profile.ConfirmKeywords = []string{"enviar"}
	r := runner.New(armedSession(t), runner.WithProfile(profile))

	tree := memory.NewTree(memory.NodeSpec{
		Owner: "com.oem.ussd",
		Children: []memory.NodeSpec{
			{Label: "1. Send Money"},
			{Role: "android.widget.EditText", Editable: true},
			{Label: "OK", Role: "android.widget.Button"},
			{Label: "Enviar", Role: "android.widget.Button"},
		},
	})
	res := r.Handle(context.Background(), ports.Event{Kind: domain.EventContentChanged, Source: tree.Root()})

	assert.Equal(t, "Enviar", res.Button)
	phone := dialog("1. Send Money")
	res = r.Handle(context.Background(), ports.Event{Kind: domain.EventContentChanged, Source: phone.Root()})
	assert.Equal(t, domain.OutcomeNotDialog, res.Outcome)
}

func TestRunner_Run_SequentialFlow(t *testing.T) {
	session := armedSession(t)
	r := runner.New(session)

	screens := []*memory.Tree{
		dialog("1. Send Money 2. Request Money"),
		dialog("Enter UPI ID"),
		dialog("Enter Amount"),
		dialog("Enter MPIN"),
		dialog("Payment successful. Transaction ID 42"),
		dialog("1. Send Money"),
	}
	var host []memory.Screen
	for _, tree := range screens {
		host = append(host, memory.Screen{Kind: domain.EventContentChanged, Tree: tree})
	}
	events, err := memory.NewHost(host...).Events(context.Background())
	require.NoError(t, err)

	require.NoError(t, r.Run(context.Background(), events))

	assert.Equal(t, domain.PhaseSuccess, session.Phase())
	wantTexts := []string{"1", "foo@bank", "500"}
	for i, tree := range screens {
		assert.Equal(t, 0, tree.Outstanding(), "screen %d", i)
		actions := tree.Actions()
		if i < len(wantTexts) {
			require.Len(t, actions, 2, "screen %d", i)
			assert.Equal(t, wantTexts[i], actions[0].Text)
			assert.Equal(t, memory.ActionActivate, actions[1].Kind)
		} else {
			assert.Empty(t, actions, "screen %d", i)
		}
	}
}

func TestRunner_Run_StopsOnCancel(t *testing.T) {
	r := runner.New(armedSession(t))
	events := make(chan ports.Event, 1)
	tree := dialog("1. Send Money")
	events <- ports.Event{Kind: domain.EventContentChanged, Source: tree.Root()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, events) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 0, tree.Outstanding(), "queued source released on shutdown")
}
