package dto

// CredentialsRequest is the body of POST /login/ and POST /register/. Email is
// only read on registration.
type CredentialsRequest struct {
	Username string `json:"username" validate:"max=150"`
	Password string `json:"password"`
	Email    string `json:"email" validate:"omitempty,max=254"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Success  bool   `json:"success"`
	Token    string `json:"token"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}
