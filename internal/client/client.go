package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/grepsan/huddle/internal/signaling"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client manages the WebSocket connection to the signaling server.
type Client struct {
	conn      *websocket.Conn
	serverURL string
	userID    string
	incoming  chan *signaling.Message
	outgoing  chan *signaling.Message
	done      chan struct{}
	closed    bool
}

// NewClient creates a new signaling client with a fresh user ID.
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: serverURL,
		userID:    uuid.NewString(),
		incoming:  make(chan *signaling.Message, 32),
		outgoing:  make(chan *signaling.Message, 32),
		done:      make(chan struct{}),
	}
}

// UserID returns the client-generated participant identifier.
func (c *Client) UserID() string {
	return c.userID
}

// Connect establishes the WebSocket connection to the server.
func (c *Client) Connect() error {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.conn = conn

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.readPump()
	go c.writePump()

	return nil
}

// Join enters a room under the client's user ID.
func (c *Client) Join(roomID string) error {
	return c.send(signaling.MessageTypeJoinRoom, signaling.JoinPayload{
		RoomID: roomID,
		UserID: c.userID,
	})
}

// SendOffer forwards an opaque SDP offer to the target participant.
func (c *Client) SendOffer(target string, sdp json.RawMessage) error {
	return c.send(signaling.MessageTypeOffer, signaling.SignalPayload{SDP: sdp, Target: target})
}

// SendAnswer forwards an opaque SDP answer to the target participant.
func (c *Client) SendAnswer(target string, sdp json.RawMessage) error {
	return c.send(signaling.MessageTypeAnswer, signaling.SignalPayload{SDP: sdp, Target: target})
}

// SendCandidate forwards an opaque ICE candidate to the target participant.
func (c *Client) SendCandidate(target string, candidate json.RawMessage) error {
	return c.send(signaling.MessageTypeICECandidate, signaling.CandidatePayload{
		Candidate: candidate,
		Target:    target,
	})
}

// SendChat broadcasts a chat line to the whole room.
func (c *Client) SendChat(name, text string) error {
	return c.send(signaling.MessageTypeChat, signaling.ChatPayload{Name: name, Message: text})
}

func (c *Client) send(msgType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", msgType, err)
	}

	select {
	case c.outgoing <- &signaling.Message{Type: msgType, Payload: body}:
		return nil
	case <-c.done:
		return fmt.Errorf("client closed")
	}
}

// Incoming returns the channel of messages received from the server. It is
// closed when the connection drops.
func (c *Client) Incoming() <-chan *signaling.Message {
	return c.incoming
}

// readPump reads messages from the WebSocket connection.
func (c *Client) readPump() {
	defer func() {
		c.conn.Close()
		close(c.incoming)
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		var msg signaling.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		c.incoming <- &msg
	}
}

// writePump writes messages to the WebSocket connection and sends periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.outgoing:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// Close closes the WebSocket connection and cleans up resources.
func (c *Client) Close() {
	if c.closed {
		return
	}
	c.closed = true

	close(c.done)
}
