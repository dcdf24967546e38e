package request

type SetActive struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

type SetRole struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type SetPassword struct {
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type SetSignupMode struct {
	SignupMode string `json:"signup_mode" validate:"required,oneof=open approval disabled"`
}
