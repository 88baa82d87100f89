package uitree_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/ussdpilot/internal/uitree"
	"github.com/aretw0/ussdpilot/pkg/adapters/memory"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInjector_Fill_EveryField(t *testing.T) {
	s := uitree.NewScanner(domain.DefaultDialogProfile())
	inj := uitree.NewInjector(domain.DefaultDialogProfile().ConfirmKeywords)
	tree := memory.NewTree(memory.NodeSpec{
		Owner: "com.android.phone",
		Children: []memory.NodeSpec{
			{Role: roleEdit, Editable: true, Label: "first"},
			{Children: []memory.NodeSpec{{Role: roleEdit, Editable: true, Label: "second"}}},
			{Role: roleEdit, Label: "read only"},
		},
	})
	root := tree.Root()
	defer root.Release()
	controls := s.Discover(root)
	defer controls.Release()

	filled, err := inj.Fill(context.Background(), controls.Fields, "500")
	require.NoError(t, err)
	assert.Equal(t, 2, filled)

	assert.Equal(t, []memory.Action{
		{Kind: memory.ActionSetText, Role: roleEdit, Label: "first", Text: "500"},
		{Kind: memory.ActionSetText, Role: roleEdit, Label: "second", Text: "500"},
	}, tree.Actions())
}

func TestInjector_Fill_KeepsGoingOnError(t *testing.T) {
	inj := uitree.NewInjector(nil)
	tree := memory.NewTree(memory.NodeSpec{Role: roleEdit, Editable: true})
	root := tree.Root()
	defer root.Release()

	boom := errors.New("device offline")
	tree.FailActions(boom)

	filled, err := inj.Fill(context.Background(), []ports.Node{root, root}, "1")
	assert.Equal(t, 0, filled)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "field 1")
}

func TestInjector_Confirm(t *testing.T) {
	tests := []struct {
		name      string
		labels    []string
		wantLabel string
		wantClick bool
	}{
		{"First Match Wins", []string{"Cancel", "SEND", "OK"}, "SEND", true},
		{"Reply Button", []string{"Dismiss", "Reply"}, "Reply", true},
		{"Ok Substring", []string{"Book"}, "Book", true},
		{"No Match", []string{"Cancel", "Dismiss"}, "", false},
		{"No Buttons", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := memory.NodeSpec{}
			for _, l := range tt.labels {
				spec.Children = append(spec.Children, memory.NodeSpec{Label: l, Role: roleButton})
			}
			tree := memory.NewTree(spec)
			root := tree.Root()
			defer root.Release()
			controls := uitree.NewScanner(domain.DefaultDialogProfile()).Discover(root)
			defer controls.Release()

			inj := uitree.NewInjector(domain.DefaultDialogProfile().ConfirmKeywords)
			label, clicked, err := inj.Confirm(context.Background(), controls.Buttons)
			require.NoError(t, err)
			assert.Equal(t, tt.wantClick, clicked)
			assert.Equal(t, tt.wantLabel, label)

			activations := 0
			for _, a := range tree.Actions() {
				if a.Kind == memory.ActionActivate {
					activations++
				}
			}
			if tt.wantClick {
				assert.Equal(t, 1, activations)
			} else {
				assert.Zero(t, activations)
			}
		})
	}
}

func TestInjector_Confirm_ActivationError(t *testing.T) {
	tree := memory.NewTree(memory.NodeSpec{Label: "Send", Role: roleButton})
	root := tree.Root()
	defer root.Release()
	tree.FailActions(errors.New("tap failed"))

	inj := uitree.NewInjector([]string{"send"})
	label, clicked, err := inj.Confirm(context.Background(), []ports.Node{root})
	assert.Error(t, err)
	assert.False(t, clicked)
	assert.Equal(t, "Send", label)
}
