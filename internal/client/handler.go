package client

import (
	"encoding/json"

	"github.com/grepsan/huddle/internal/signaling"
)

// Handler routes incoming signaling messages to typed channels.
type Handler struct {
	client           *Client
	AllUsers         chan []string
	UserConnected    chan string
	UserDisconnected chan string
	Offer            chan *signaling.SignalPayload
	Answer           chan *signaling.SignalPayload
	Candidate        chan *signaling.CandidatePayload
	Chat             chan *signaling.ChatPayload
	Error            chan string
	done             chan struct{}
	closed           bool
}

// NewHandler creates a new message handler.
func NewHandler(client *Client) *Handler {
	return &Handler{
		client:           client,
		AllUsers:         make(chan []string, 1),
		UserConnected:    make(chan string, 8),
		UserDisconnected: make(chan string, 8),
		Offer:            make(chan *signaling.SignalPayload, 32),
		Answer:           make(chan *signaling.SignalPayload, 32),
		Candidate:        make(chan *signaling.CandidatePayload, 32),
		Chat:             make(chan *signaling.ChatPayload, 32),
		Error:            make(chan string, 1),
		done:             make(chan struct{}),
	}
}

// Done is closed once the connection drops and Start has returned.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}

// Start listens to incoming messages and routes them until the connection
// drops. Run it in its own goroutine.
func (h *Handler) Start() {
	defer close(h.done)

	for msg := range h.client.Incoming() {
		switch msg.Type {

		case signaling.MessageTypeAllUsers:
			var payload signaling.AllUsersPayload
			if json.Unmarshal(msg.Payload, &payload) == nil {
				h.AllUsers <- payload.Users
			}

		case signaling.MessageTypeUserConnected:
			var payload signaling.UserPayload
			if json.Unmarshal(msg.Payload, &payload) == nil {
				h.UserConnected <- payload.UserID
			}

		case signaling.MessageTypeUserDisconnected:
			var payload signaling.UserPayload
			if json.Unmarshal(msg.Payload, &payload) == nil {
				h.UserDisconnected <- payload.UserID
			}

		case signaling.MessageTypeOffer:
			if p := decodeSignal(msg); p != nil {
				h.Offer <- p
			}

		case signaling.MessageTypeAnswer:
			if p := decodeSignal(msg); p != nil {
				h.Answer <- p
			}

		case signaling.MessageTypeICECandidate:
			var payload signaling.CandidatePayload
			if json.Unmarshal(msg.Payload, &payload) == nil {
				h.Candidate <- &payload
			}

		case signaling.MessageTypeChat:
			var payload signaling.ChatPayload
			if json.Unmarshal(msg.Payload, &payload) == nil {
				h.Chat <- &payload
			}

		case signaling.MessageTypeError:
			var payload signaling.ErrorPayload
			if json.Unmarshal(msg.Payload, &payload) != nil {
				payload.Error = "unknown error from server"
			}
			h.Error <- payload.Error

		default:

		}
	}
}

func decodeSignal(msg *signaling.Message) *signaling.SignalPayload {
	var payload signaling.SignalPayload
	if json.Unmarshal(msg.Payload, &payload) != nil {
		return nil
	}
	return &payload
}

// Close closes all handler channels.
func (h *Handler) Close() {
	if h.closed {
		return
	}
	h.closed = true

	close(h.AllUsers)
	close(h.UserConnected)
	close(h.UserDisconnected)
	close(h.Offer)
	close(h.Answer)
	close(h.Candidate)
	close(h.Chat)
	close(h.Error)
}
