package types

// Session is the current authenticated-identity state.
type Session struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
}

// Anonymous is the torn-down session state.
var Anonymous = Session{}
