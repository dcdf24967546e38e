package model

// SignupMode controls whether new accounts may register and whether they
// start active.
type SignupMode string

const (
	SignupOpen     SignupMode = "open"
	SignupApproval SignupMode = "approval"
	SignupDisabled SignupMode = "disabled"
)

// SettingSignupMode is the app_settings key holding the signup mode.
const SettingSignupMode = "signup_mode"

// Valid reports whether m is one of the known signup modes.
func (m SignupMode) Valid() bool {
	switch m {
	case SignupOpen, SignupApproval, SignupDisabled:
		return true
	}
	return false
}
