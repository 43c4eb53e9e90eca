package websocket

// Client -> server message types.
const (
	MsgHello      = "hello"
	MsgVisibility = "visibility"
	MsgFocus      = "focus"
	MsgStatus     = "status"
)

// Server -> client message types.
const (
	MsgClearStorage = "clear_storage"
	MsgSignOut      = "sign_out"
	MsgNavigate     = "navigate"
)

// ClientMessage is any frame the page sends. Storage is read from hello and
// status frames and replaces the mirrored snapshot. Token, sent with a status
// frame after a sign-in on an open socket, names the new server session.
type ClientMessage struct {
	Type    string            `json:"type"`
	Status  string            `json:"status,omitempty"`
	Storage map[string]string `json:"storage,omitempty"`
	Token   string            `json:"token,omitempty"`
	Visible bool              `json:"visible,omitempty"`
}

type ServerMessage struct {
	Type     string   `json:"type"`
	Keys     []string `json:"keys,omitempty"`
	Redirect *bool    `json:"redirect,omitempty"`
	URL      string   `json:"url,omitempty"`
}
