package dto

// Fields are pointers so a missing key can be told apart from an empty value.

// EmailRequest payload for POST /validate/email.
type EmailRequest struct {
	Email *string `json:"email"`
}

// PasswordRequest payload for POST /validate/password.
type PasswordRequest struct {
	Password *string `json:"password"`
}

// UsernameRequest payload for POST /validate/username.
type UsernameRequest struct {
	Username *string `json:"username"`
}
