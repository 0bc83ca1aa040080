package signaling

import (
	"encoding/json"
	"log/slog"
)

// Hub is the central brain of the signaling server. It owns the room
// registry and the userID -> connection index, and routes every message
// between clients. All state is touched only from the Run goroutine, so
// handlers never race each other.
type Hub struct {
	// registry tracks room membership. Injected so tests can assert on it
	// and the stats endpoint can read it.
	registry *Registry

	// peers maps a user ID to its live connection. One connection per ID.
	peers map[string]*Client

	// Register is a channel for registering new clients.
	Register chan *Client

	// Unregister is a channel for unregistering clients.
	Unregister chan *Client

	// Inbound is the channel clients push received messages onto.
	Inbound chan *Message
}

// NewHub creates a new Hub instance backed by the given registry.
func NewHub(registry *Registry) *Hub {
	return &Hub{
		registry:   registry,
		peers:      make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Inbound:    make(chan *Message),
	}
}

// Run starts the hub's main processing loop. This is the single goroutine
// that safely manages all state (registry, peer index, client records).
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			// Not in a room yet; the client must send join-room first.
			slog.Debug("client registered", "remote", client.Conn.RemoteAddr())

		case client := <-h.Unregister:
			h.handleDisconnect(client)

		case message := <-h.Inbound:
			h.dispatch(message)
		}
	}
}

// dispatch routes one inbound message by its type tag.
func (h *Hub) dispatch(msg *Message) {
	switch msg.Type {
	case MessageTypeJoinRoom:
		h.handleJoin(msg)

	case MessageTypeOffer, MessageTypeAnswer:
		h.handleSignal(msg)

	case MessageTypeICECandidate:
		h.handleCandidate(msg)

	case MessageTypeChat:
		h.handleChat(msg)

	default:
		slog.Warn("unknown message type", "type", msg.Type, "remote", msg.client.Conn.RemoteAddr())
	}
}

// handleJoin binds the connection to a room and user ID, tells the joiner
// who is already there, and announces the arrival to the rest of the room.
func (h *Hub) handleJoin(msg *Message) {
	client := msg.client

	// A connection joins at most once. A second join-room is a protocol
	// violation: log and ignore.
	if client.joined {
		slog.Warn("duplicate join ignored", "room", client.roomID, "user", client.userID)
		return
	}

	var join JoinPayload
	if err := json.Unmarshal(msg.Payload, &join); err != nil {
		slog.Warn("malformed join payload", "remote", client.Conn.RemoteAddr(), "err", err)
		h.send(client, errorMessage("malformed join-room payload"))
		return
	}

	// Another live connection already claims this user ID. Letting the
	// join through would corrupt the one-ID-one-connection invariant, so
	// ignore it.
	if _, taken := h.peers[join.UserID]; taken {
		slog.Warn("join with user id already in use", "room", join.RoomID, "user", join.UserID)
		return
	}

	client.roomID = join.RoomID
	client.userID = join.UserID
	client.joined = true

	h.registry.Join(join.RoomID, join.UserID)
	h.peers[join.UserID] = client

	slog.Info("client joined room", "room", join.RoomID, "user", join.UserID,
		"members", h.registry.MemberCount(join.RoomID))

	// Tell the joiner who is already here.
	users, _ := json.Marshal(AllUsersPayload{
		Users: h.registry.MembersExcluding(join.RoomID, join.UserID),
	})
	h.send(client, &Message{Type: MessageTypeAllUsers, Payload: users})

	// Tell everyone else a new peer arrived.
	arrived, _ := json.Marshal(UserPayload{UserID: join.UserID})
	h.broadcast(join.RoomID, client, &Message{Type: MessageTypeUserConnected, Payload: arrived})
}

// handleSignal forwards an offer or answer to its target, stamped with the
// sender's user ID. The SDP body is never inspected.
func (h *Hub) handleSignal(msg *Message) {
	client := msg.client
	if !client.joined {
		h.send(client, errorMessage("join a room before signaling"))
		return
	}

	var signal SignalPayload
	if err := json.Unmarshal(msg.Payload, &signal); err != nil {
		slog.Warn("malformed signal payload", "type", msg.Type, "user", client.userID, "err", err)
		return
	}

	target, ok := h.peers[signal.Target]
	if !ok {
		// Target already left. Fire-and-forget: drop without telling the
		// sender, who will learn via user-disconnected.
		slog.Debug("signal target gone", "type", msg.Type, "target", signal.Target, "user", client.userID)
		return
	}

	forwarded, _ := json.Marshal(SignalPayload{SDP: signal.SDP, Sender: client.userID})
	h.send(target, &Message{Type: msg.Type, Payload: forwarded})
}

// handleCandidate forwards an ICE candidate to its target, same contract
// as handleSignal.
func (h *Hub) handleCandidate(msg *Message) {
	client := msg.client
	if !client.joined {
		h.send(client, errorMessage("join a room before signaling"))
		return
	}

	var cand CandidatePayload
	if err := json.Unmarshal(msg.Payload, &cand); err != nil {
		slog.Warn("malformed candidate payload", "user", client.userID, "err", err)
		return
	}

	target, ok := h.peers[cand.Target]
	if !ok {
		slog.Debug("candidate target gone", "target", cand.Target, "user", client.userID)
		return
	}

	forwarded, _ := json.Marshal(CandidatePayload{Candidate: cand.Candidate, Sender: client.userID})
	h.send(target, &Message{Type: MessageTypeICECandidate, Payload: forwarded})
}

// handleChat rebroadcasts a chat message to the whole room, sender
// included, so every client renders the same transcript.
func (h *Hub) handleChat(msg *Message) {
	client := msg.client
	if !client.joined {
		h.send(client, errorMessage("join a room before chatting"))
		return
	}

	h.broadcast(client.roomID, nil, &Message{Type: MessageTypeChat, Payload: msg.Payload})
}

// handleDisconnect tears down a connection: registry removal, departure
// broadcast, and closing the send channel to stop the write pump. A
// connection that never joined has no registry side effects.
func (h *Hub) handleDisconnect(client *Client) {
	if client.joined {
		h.registry.Leave(client.roomID, client.userID)
		delete(h.peers, client.userID)

		slog.Info("client left room", "room", client.roomID, "user", client.userID,
			"members", h.registry.MemberCount(client.roomID))

		left, _ := json.Marshal(UserPayload{UserID: client.userID})
		h.broadcast(client.roomID, client, &Message{Type: MessageTypeUserDisconnected, Payload: left})
	} else {
		slog.Debug("client disconnected before joining", "remote", client.Conn.RemoteAddr())
	}

	close(client.Send)
}

// broadcast sends msg to every live connection in roomID except exclude
// (pass nil to include everyone).
func (h *Hub) broadcast(roomID string, exclude *Client, msg *Message) {
	for _, userID := range h.registry.Members(roomID) {
		peer, ok := h.peers[userID]
		if !ok || peer == exclude {
			continue
		}
		h.send(peer, msg)
	}
}

// send queues msg on the client's outbound channel without ever blocking
// the hub loop. If the client's buffer is full the message is dropped;
// delivery here is fire-and-forget.
func (h *Hub) send(client *Client, msg *Message) {
	select {
	case client.Send <- msg:
	default:
		slog.Warn("send buffer full, dropping message", "type", msg.Type, "user", client.userID)
	}
}
