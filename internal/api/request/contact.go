package request

type CreateContact struct {
	FirstName  string  `json:"first_name" validate:"required,max=200"`
	LastName   *string `json:"last_name"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Phone      *string `json:"phone"`
	Company    *string `json:"company"`
	JobTitle   *string `json:"job_title"`
	Notes      *string `json:"notes"`
	AvatarURL  *string `json:"avatar_url"`
	IsFavorite bool    `json:"is_favorite"`
}

type UpdateContact struct {
	FirstName  *string `json:"first_name" validate:"omitempty,max=200"`
	LastName   *string `json:"last_name"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Phone      *string `json:"phone"`
	Company    *string `json:"company"`
	JobTitle   *string `json:"job_title"`
	Notes      *string `json:"notes"`
	AvatarURL  *string `json:"avatar_url"`
	IsFavorite *bool   `json:"is_favorite"`
}
