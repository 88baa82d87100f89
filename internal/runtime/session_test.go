package runtime_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/ussdpilot/internal/runtime"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func armed(t *testing.T, opts ...runtime.Option) *runtime.Session {
	t.Helper()
	s := runtime.NewSession(opts...)
	req, err := domain.NewPaymentRequest("500", "foo@bank", "Foo")
	require.NoError(t, err)
	s.Arm(context.Background(), req)
	return s
}

func TestSession_Classify_Rules(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantInput string
		wantOK    bool
		wantPhase domain.Phase
	}{
		{"Main Menu", "1. Send Money 2. Request Money", "1", true, domain.PhaseMenuMain},
		{"Menu Short Form", "1. send\n2. check balance", "1", true, domain.PhaseMenuMain},
		{"Destination Prompt", "Please Enter UPI ID or Mobile", "foo@bank", true, domain.PhaseEnterDestination},
		{"VPA Prompt", "Enter payee VPA", "foo@bank", true, domain.PhaseEnterDestination},
		{"Mobile/UPI Prompt", "Mobile/UPI:", "foo@bank", true, domain.PhaseEnterDestination},
		{"Amount Prompt", "ENTER AMOUNT", "500", true, domain.PhaseEnterAmount},
		{"Amount Precedes Confirm", "Confirm Amount 500 to X", "500", true, domain.PhaseEnterAmount},
		{"PIN Prompt", "Enter PIN to proceed", "", false, domain.PhaseConfirm},
		{"MPIN Prompt", "Enter your MPIN", "", false, domain.PhaseConfirm},
		{"Success", "Payment Successful", "", false, domain.PhaseSuccess},
		{"Success By Reference", "Transaction ID: 123456", "", false, domain.PhaseSuccess},
		{"Declined", "Payment DECLINED by bank", "", false, domain.PhaseFailed},
		{"Unmatched", "Welcome to *99#", "", false, domain.PhaseIdle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := armed(t)
			input, ok := s.Classify(context.Background(), tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantInput, input)
			assert.Equal(t, tt.wantPhase, s.Phase())
		})
	}
}

func TestSession_Classify_FailureFromAnyPhase(t *testing.T) {
	ctx := context.Background()
	setups := map[string]string{
		"Idle":             "",
		"MenuMain":         "1. Send Money",
		"EnterDestination": "Enter UPI ID",
		"EnterAmount":      "Enter Amount",
		"Confirm":          "Enter PIN",
	}
	for name, setup := range setups {
		for _, text := range []string{"Transfer failed", "ERROR 500", "Request Declined"} {
			t.Run(name+"/"+text, func(t *testing.T) {
				s := armed(t)
				if setup != "" {
					s.Classify(ctx, setup)
				}
				input, ok := s.Classify(ctx, text)
				assert.False(t, ok)
				assert.Empty(t, input)
				assert.Equal(t, domain.PhaseFailed, s.Phase())
			})
		}
	}
}

func TestSession_Classify_UnarmedIsInert(t *testing.T) {
	s := runtime.NewSession()
	for _, text := range []string{"1. Send Money", "Enter UPI", "failed", "successful", ""} {
		input, ok := s.Classify(context.Background(), text)
		assert.False(t, ok, text)
		assert.Empty(t, input, text)
		assert.Equal(t, domain.PhaseIdle, s.Phase(), text)
	}
}

func TestSession_Classify_TerminalIsSticky(t *testing.T) {
	ctx := context.Background()
	for _, terminal := range []string{"Payment successful", "Payment failed"} {
		s := armed(t)
		s.Classify(ctx, terminal)
		phase := s.Phase()
		require.True(t, phase.IsTerminal())

		for _, text := range []string{"1. Send Money", "Enter Amount", "error", "Transaction ID"} {
			input, ok := s.Classify(ctx, text)
			assert.False(t, ok)
			assert.Empty(t, input)
			assert.Equal(t, phase, s.Phase())
		}
	}
}

func TestSession_Reset(t *testing.T) {
	ctx := context.Background()
	s := armed(t)
	s.Classify(ctx, "Enter Amount")

	s.Reset(ctx)

	assert.Equal(t, domain.PhaseIdle, s.Phase())
	_, ok := s.Request()
	assert.False(t, ok)
	snap := s.Snapshot()
	assert.Nil(t, snap.Request)

	input, ok := s.Classify(ctx, "1. Send Money")
	assert.False(t, ok)
	assert.Empty(t, input)
	assert.Equal(t, domain.PhaseIdle, s.Phase())
}

func TestSession_Arm_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	s := armed(t)
	s.Classify(ctx, "Enter UPI")

	next, err := domain.NewPaymentRequest("20", "bar@bank", "")
	require.NoError(t, err)
	assert.True(t, s.Arm(ctx, next), "arming mid-flow reports the overwrite")
	assert.Equal(t, domain.PhaseIdle, s.Phase())

	input, ok := s.Classify(ctx, "Enter UPI")
	assert.True(t, ok)
	assert.Equal(t, "bar@bank", input)

	s.Classify(ctx, "successful")
	assert.False(t, s.Arm(ctx, next), "arming after a terminal phase is not an overwrite")
}

func TestSession_LifecycleHooks(t *testing.T) {
	ctx := context.Background()
	var events []domain.PhaseEvent
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	s := armed(t,
		runtime.WithClock(func() time.Time { return fixed }),
		runtime.WithLifecycleHooks(domain.LifecycleHooks{
			OnPhaseChange: func(_ context.Context, e *domain.PhaseEvent) {
				events = append(events, *e)
			},
		}),
	)

	s.Classify(ctx, "1. Send Money")
	s.Classify(ctx, "1. Send Money") // same phase, no event
	s.Classify(ctx, "Enter Amount")

	require.Len(t, events, 2)
	assert.Equal(t, domain.PhaseEvent{Timestamp: fixed, From: domain.PhaseIdle, To: domain.PhaseMenuMain, Keyword: "send money"}, events[0])
	assert.Equal(t, domain.PhaseMenuMain, events[1].From)
	assert.Equal(t, domain.PhaseEnterAmount, events[1].To)
	assert.Equal(t, "enter amount", events[1].Keyword)
	assert.Equal(t, fixed, s.Snapshot().UpdatedAt)
}

func TestSession_ResetAndArmReportReturnToIdle(t *testing.T) {
	ctx := context.Background()
	var events []domain.PhaseEvent
	s := armed(t, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnPhaseChange: func(_ context.Context, e *domain.PhaseEvent) {
			events = append(events, *e)
		},
	}))

	s.Reset(ctx) // already idle
	assert.Empty(t, events)

	req := domain.PaymentRequest{Amount: "500", DestinationID: "foo@bank"}
	s.Arm(ctx, req)
	s.Classify(ctx, "Transaction failed")
	s.Reset(ctx)

	require.Len(t, events, 2)
	assert.Equal(t, domain.PhaseFailed, events[1].From)
	assert.Equal(t, domain.PhaseIdle, events[1].To)
	assert.Empty(t, events[1].Keyword)

	s.Arm(ctx, req)
	s.Classify(ctx, "Enter Amount")
	s.Arm(ctx, req)

	require.Len(t, events, 4)
	assert.Equal(t, domain.PhaseEnterAmount, events[3].From)
	assert.Equal(t, domain.PhaseIdle, events[3].To)
}

func TestSession_WithRules(t *testing.T) {
	rules := []runtime.Rule{{
		Phase:    domain.PhaseMenuMain,
		Keywords: []string{"pay"},
		Reply:    func(domain.PaymentRequest) string { return "3" },
	}}
	s := armed(t, runtime.WithRules(rules))

	input, ok := s.Classify(context.Background(), "3. Pay")
	assert.True(t, ok)
	assert.Equal(t, "3", input)

	_, ok = s.Classify(context.Background(), "1. Send Money")
	assert.False(t, ok)
}
