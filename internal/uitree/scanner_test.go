package uitree_test

import (
	"testing"

	"github.com/aretw0/ussdpilot/internal/uitree"
	"github.com/aretw0/ussdpilot/pkg/adapters/memory"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	roleText   = "android.widget.TextView"
	roleEdit   = "android.widget.EditText"
	roleButton = "android.widget.Button"
)

func ussdDialog() memory.NodeSpec {
	return memory.NodeSpec{
		Owner: "com.android.phone",
		Role:  "android.widget.FrameLayout",
		Children: []memory.NodeSpec{
			{Label: "Enter", Role: roleText},
			{Role: "android.widget.LinearLayout", Children: []memory.NodeSpec{
				{Label: "Amount", Role: roleText},
				{Role: roleEdit, Editable: true},
			}},
			{Label: "Cancel", Role: roleButton},
			{Label: "Send", Role: roleButton},
		},
	}
}

func TestScanner_IsDialog(t *testing.T) {
	s := uitree.NewScanner(domain.DefaultDialogProfile())
	tests := []struct {
		name string
		spec memory.NodeSpec
		want bool
	}{
		{"Phone Package", memory.NodeSpec{Owner: "com.android.phone"}, true},
		{"Samsung Package", memory.NodeSpec{Owner: "com.samsung.android.phone"}, true},
		{"Vendor Telephony", memory.NodeSpec{Owner: "com.vendor.telephony.ui"}, true},
		{"Alert Dialog Class", memory.NodeSpec{Owner: "com.other", Role: "android.app.AlertDialog"}, true},
		{"Ussd Activity", memory.NodeSpec{Role: "com.android.phone.UssdAlertActivity"}, true},
		{"Launcher", memory.NodeSpec{Owner: "com.android.launcher3", Role: "android.widget.FrameLayout"}, false},
		{"Empty", memory.NodeSpec{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := memory.NewTree(tt.spec)
			root := tree.Root()
			defer root.Release()
			assert.Equal(t, tt.want, s.IsDialog(root))
		})
	}
}

func TestScanner_IsDialog_ExtendedProfile(t *testing.T) {
	profile := domain.DefaultDialogProfile()
	profile.Owners = append(profile.Owners, "com.oem.dialer")
	s := uitree.NewScanner(profile)

	tree := memory.NewTree(memory.NodeSpec{Owner: "com.oem.dialer"})
	root := tree.Root()
	defer root.Release()
	assert.True(t, s.IsDialog(root))
}

func TestScanner_ExtractText_PreOrder(t *testing.T) {
	s := uitree.NewScanner(domain.DefaultDialogProfile())
	tree := memory.NewTree(memory.NodeSpec{
		Children: []memory.NodeSpec{{Label: "Enter"}, {Label: "Amount"}},
	})
	root := tree.Root()

	assert.Equal(t, "Enter Amount ", s.ExtractText(root))

	root.Release()
	assert.Equal(t, 0, tree.Outstanding())
	assert.Equal(t, 0, tree.DoubleReleases())
}

func TestScanner_ExtractText_NestedAndSkipsMissing(t *testing.T) {
	s := uitree.NewScanner(domain.DefaultDialogProfile())
	tree := memory.NewTree(memory.NodeSpec{
		Label: "Root",
		Children: []memory.NodeSpec{
			{Children: []memory.NodeSpec{{Label: "Deep"}}},
			{Label: "Vanished", Gone: true, Children: []memory.NodeSpec{{Label: "Hidden"}}},
			{Label: "Last"},
		},
	})
	root := tree.Root()
	defer root.Release()

	assert.Equal(t, "Root Deep Last ", s.ExtractText(root))
	assert.Equal(t, 1, tree.Outstanding(), "only the root handle remains")
}

func TestScanner_Discover(t *testing.T) {
	s := uitree.NewScanner(domain.DefaultDialogProfile())
	tree := memory.NewTree(ussdDialog())
	root := tree.Root()

	controls := s.Discover(root)
	require.Len(t, controls.Fields, 1)
	assert.Equal(t, roleEdit, controls.Fields[0].Role())
	require.Len(t, controls.Buttons, 2)
	assert.Equal(t, "Cancel", controls.Buttons[0].Label())
	assert.Equal(t, "Send", controls.Buttons[1].Label())
	assert.Equal(t, 4, tree.Outstanding(), "root plus three retained controls")

	controls.Release()
	controls.Release()
	root.Release()

	assert.Equal(t, 0, tree.Outstanding())
	assert.Equal(t, 0, tree.DoubleReleases())
}

func TestScanner_Discover_RootIsNotHeld(t *testing.T) {
	s := uitree.NewScanner(domain.DefaultDialogProfile())
	tree := memory.NewTree(memory.NodeSpec{Role: roleEdit, Editable: true})
	root := tree.Root()

	controls := s.Discover(root)
	require.Len(t, controls.Fields, 1)
	controls.Release()

	assert.Equal(t, 1, tree.Outstanding(), "root stays with its owner")
	root.Release()
	assert.Equal(t, 0, tree.DoubleReleases())
}
