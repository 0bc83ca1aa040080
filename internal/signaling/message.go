package signaling

import "encoding/json"

// Message type constants for all C2S and S2C websocket events.
const (
	// Client to server.
	MessageTypeJoinRoom     = "join-room"
	MessageTypeOffer        = "offer"
	MessageTypeAnswer       = "answer"
	MessageTypeICECandidate = "ice-candidate"
	MessageTypeChat         = "chat"

	// Server to client.
	MessageTypeAllUsers         = "all-users"
	MessageTypeUserConnected    = "user-connected"
	MessageTypeUserDisconnected = "user-disconnected"
	MessageTypeError            = "error"
)

// Message is the envelope for all websocket traffic. The payload is kept
// raw: the server only decodes the fields it routes on and forwards SDP
// and candidate bodies untouched.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`

	// client is the client that sent the message.
	// It's used internally by the Hub and not sent over JSON.
	client *Client `json:"-"`
}

// JoinPayload is the body of a join-room message.
type JoinPayload struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

// AllUsersPayload lists the users already present when a client joins.
type AllUsersPayload struct {
	Users []string `json:"users"`
}

// UserPayload carries a single user ID (user-connected, user-disconnected).
type UserPayload struct {
	UserID string `json:"userId"`
}

// SignalPayload is the body of offer and answer messages. The SDP is opaque
// to the server. Target is set by the sending client; Sender is stamped by
// the hub before forwarding.
type SignalPayload struct {
	SDP    json.RawMessage `json:"sdp,omitempty"`
	Target string          `json:"target,omitempty"`
	Sender string          `json:"sender,omitempty"`
}

// CandidatePayload is the body of ice-candidate messages. Same target and
// sender handling as SignalPayload.
type CandidatePayload struct {
	Candidate json.RawMessage `json:"candidate,omitempty"`
	Target    string          `json:"target,omitempty"`
	Sender    string          `json:"sender,omitempty"`
}

// ChatPayload is the body of chat messages, rebroadcast room-wide as-is.
type ChatPayload struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// ErrorPayload is the body of error messages sent on protocol violations.
type ErrorPayload struct {
	Error string `json:"error"`
}

func errorMessage(text string) *Message {
	payload, _ := json.Marshal(ErrorPayload{Error: text})
	return &Message{Type: MessageTypeError, Payload: payload}
}
