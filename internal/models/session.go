package models

// Session carries the per-user context of one client. It is passed
// explicitly to whatever needs it.
type Session struct {
	Email       string `json:"email"`
	ProfileName string `json:"profile_name,omitempty"`
	Token       string `json:"-"`
	LightMode   bool   `json:"light_mode"`
}

// Authenticated reports whether the session can make per-user backend calls.
func (s Session) Authenticated() bool {
	return s.Email != ""
}
