package domain

// DialogProfile holds the heuristic allowlists used to recognise the
// structured-menu dialog and its controls. Vendors differ, so every list is
// meant to be extended through configuration.
type DialogProfile struct {
	// Owners are matched as substrings of a node's owning-surface identifier.
	Owners []string `json:"owners" yaml:"owners" mapstructure:"owners"`

	// RoleMarkers are matched as substrings of a node's role tag.
	RoleMarkers []string `json:"role_markers" yaml:"role_markers" mapstructure:"role_markers"`

	// ButtonRoles are role tags that identify activatable buttons (exact match).
	ButtonRoles []string `json:"button_roles" yaml:"button_roles" mapstructure:"button_roles"`

	// ConfirmKeywords select the button to activate after filling input.
	ConfirmKeywords []string `json:"confirm_keywords" yaml:"confirm_keywords" mapstructure:"confirm_keywords"`
}

// DefaultDialogProfile returns the stock Android telephony profile.
func DefaultDialogProfile() DialogProfile {
	return DialogProfile{
		Owners:          []string{"com.android.phone", "com.samsung.android.phone", "telephony"},
		RoleMarkers:     []string{"AlertDialog", "UssdAlertActivity"},
		ButtonRoles:     []string{"android.widget.Button"},
		ConfirmKeywords: []string{"send", "ok", "reply"},
	}
}
