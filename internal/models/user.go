package models

// LoginResponse is the body of POST /auth/token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	UserID      int64  `json:"user_id,omitempty"`
	Username    string `json:"username,omitempty"`
}

// RegisterRequest is the body of POST /auth/.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PublicProfile is the body of GET /auth/user/{id}.
type PublicProfile struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"full_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}
