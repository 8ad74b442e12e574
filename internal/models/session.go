package models

// Session represents the authenticated identity of the console user.
// An empty AccessToken means nobody is logged in.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Role         Role   `json:"role"`
	UserID       int    `json:"user_id"`
	Email        string `json:"email"`
}

// Authenticated reports whether the session carries an access token
func (s Session) Authenticated() bool {
	return s.AccessToken != ""
}

// Normalize enforces the rule that a session without an access token has no identity
func (s Session) Normalize() Session {
	if s.AccessToken == "" {
		return Session{}
	}
	return s
}

// LoginRequest represents the credentials sent to the login endpoint
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse is returned by the login and refresh endpoints
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Role         Role   `json:"role"`
	UserID       int    `json:"user_id"`
}
