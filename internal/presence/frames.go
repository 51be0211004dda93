package presence

import "strings"

// Frame types.
const (
	TypeLogin    = "login"
	TypeMessage  = "message"
	TypeUserList = "userList"
)

// Identity is what a connection declares about itself on login.
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// inboundFrame is any frame a client may send; fields unused by a type are ignored.
type inboundFrame struct {
	Type     string `json:"type"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Content  string `json:"content"`
}

// ChatFrame is the broadcast form of a chat message.
type ChatFrame struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Content  string `json:"content"`
	Time     string `json:"time"`
}

// UserListFrame is the broadcast presence snapshot.
type UserListFrame struct {
	Type  string     `json:"type"`
	Users []Identity `json:"users"`
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
