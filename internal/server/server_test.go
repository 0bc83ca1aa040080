package server_test

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/grepsan/huddle/internal/config"
	"github.com/grepsan/huddle/internal/server"
	"github.com/grepsan/huddle/internal/signaling"
)

type testServer struct {
	ts       *httptest.Server
	registry *signaling.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{ListenAddr: ":0", StaticDir: t.TempDir()}
	registry := signaling.NewRegistry()
	hub := signaling.NewHub(registry)
	go hub.Run()

	ts := httptest.NewServer(server.NewMux(cfg, hub, registry))
	t.Cleanup(ts.Close)

	return &testServer{ts: ts, registry: registry}
}

func (s *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(s.ts.URL, "http") + "/ws"
	c, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func join(t *testing.T, c *websocket.Conn, roomID, userID string) {
	t.Helper()
	send(t, c, signaling.MessageTypeJoinRoom, signaling.JoinPayload{RoomID: roomID, UserID: userID})
}

func send(t *testing.T, c *websocket.Conn, msgType string, payload any) {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal %s: %v", msgType, err)
	}
	if err := c.WriteJSON(signaling.Message{Type: msgType, Payload: body}); err != nil {
		t.Fatalf("WriteJSON %s: %v", msgType, err)
	}
}

// recv reads the next message and fails the test if its type differs.
func recv(t *testing.T, c *websocket.Conn, wantType string) signaling.Message {
	t.Helper()

	_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg signaling.Message
	if err := c.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON (waiting for %s): %v", wantType, err)
	}
	if msg.Type != wantType {
		t.Fatalf("got message type %q, want %q", msg.Type, wantType)
	}
	return msg
}

// expectSilence fails the test if any message arrives within the window.
func expectSilence(t *testing.T, c *websocket.Conn) {
	t.Helper()

	_ = c.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var msg signaling.Message
	if err := c.ReadJSON(&msg); err == nil {
		t.Fatalf("expected no message, got type %q", msg.Type)
	}
}

func decode[T any](t *testing.T, msg signaling.Message) T {
	t.Helper()

	var payload T
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		t.Fatalf("unmarshal %s payload: %v", msg.Type, err)
	}
	return payload
}

func TestJoinScenario(t *testing.T) {
	srv := newTestServer(t)

	// A joins an empty room and is told nobody else is here.
	a := srv.dial(t)
	join(t, a, "r1", "A")
	users := decode[signaling.AllUsersPayload](t, recv(t, a, signaling.MessageTypeAllUsers))
	if len(users.Users) != 0 {
		t.Fatalf("first joiner got users %v, want none", users.Users)
	}

	// B joins: B learns about A, A learns about B.
	b := srv.dial(t)
	join(t, b, "r1", "B")
	users = decode[signaling.AllUsersPayload](t, recv(t, b, signaling.MessageTypeAllUsers))
	if len(users.Users) != 1 || users.Users[0] != "A" {
		t.Fatalf("B got users %v, want [A]", users.Users)
	}
	arrived := decode[signaling.UserPayload](t, recv(t, a, signaling.MessageTypeUserConnected))
	if arrived.UserID != "B" {
		t.Fatalf("A got user-connected %q, want B", arrived.UserID)
	}

	// A sends an offer to B, which arrives tagged with sender=A.
	send(t, a, signaling.MessageTypeOffer, signaling.SignalPayload{
		SDP:    json.RawMessage(`{"type":"offer","sdp":"v=0"}`),
		Target: "B",
	})
	offer := decode[signaling.SignalPayload](t, recv(t, b, signaling.MessageTypeOffer))
	if offer.Sender != "A" {
		t.Fatalf("offer sender = %q, want A", offer.Sender)
	}
	if string(offer.SDP) != `{"type":"offer","sdp":"v=0"}` {
		t.Fatalf("offer SDP altered in transit: %s", offer.SDP)
	}

	// B disconnects: A is notified and the registry shrinks to {A}.
	b.Close()
	left := decode[signaling.UserPayload](t, recv(t, a, signaling.MessageTypeUserDisconnected))
	if left.UserID != "B" {
		t.Fatalf("A got user-disconnected %q, want B", left.UserID)
	}
	if got := srv.registry.Members("r1"); len(got) != 1 || got[0] != "A" {
		t.Fatalf("registry members = %v, want [A]", got)
	}
}

func TestAnswerAndCandidateForwarding(t *testing.T) {
	srv := newTestServer(t)

	a := srv.dial(t)
	join(t, a, "r1", "A")
	recv(t, a, signaling.MessageTypeAllUsers)

	b := srv.dial(t)
	join(t, b, "r1", "B")
	recv(t, b, signaling.MessageTypeAllUsers)
	recv(t, a, signaling.MessageTypeUserConnected)

	send(t, b, signaling.MessageTypeAnswer, signaling.SignalPayload{
		SDP:    json.RawMessage(`{"type":"answer"}`),
		Target: "A",
	})
	answer := decode[signaling.SignalPayload](t, recv(t, a, signaling.MessageTypeAnswer))
	if answer.Sender != "B" {
		t.Fatalf("answer sender = %q, want B", answer.Sender)
	}

	send(t, a, signaling.MessageTypeICECandidate, signaling.CandidatePayload{
		Candidate: json.RawMessage(`{"candidate":"candidate:1"}`),
		Target:    "B",
	})
	cand := decode[signaling.CandidatePayload](t, recv(t, b, signaling.MessageTypeICECandidate))
	if cand.Sender != "A" {
		t.Fatalf("candidate sender = %q, want A", cand.Sender)
	}
	if string(cand.Candidate) != `{"candidate":"candidate:1"}` {
		t.Fatalf("candidate altered in transit: %s", cand.Candidate)
	}
}

func TestOfferToUnknownTargetIsDroppedSilently(t *testing.T) {
	srv := newTestServer(t)

	a := srv.dial(t)
	join(t, a, "r1", "A")
	recv(t, a, signaling.MessageTypeAllUsers)

	send(t, a, signaling.MessageTypeOffer, signaling.SignalPayload{
		SDP:    json.RawMessage(`{}`),
		Target: "nobody",
	})

	expectSilence(t, a)
}

func TestChatBroadcastIncludesSenderAndStaysInRoom(t *testing.T) {
	srv := newTestServer(t)

	a := srv.dial(t)
	join(t, a, "r1", "A")
	recv(t, a, signaling.MessageTypeAllUsers)

	b := srv.dial(t)
	join(t, b, "r1", "B")
	recv(t, b, signaling.MessageTypeAllUsers)
	recv(t, a, signaling.MessageTypeUserConnected)

	// C sits in a different room and must hear nothing.
	c := srv.dial(t)
	join(t, c, "r2", "C")
	recv(t, c, signaling.MessageTypeAllUsers)

	send(t, a, signaling.MessageTypeChat, signaling.ChatPayload{Name: "Alice", Message: "hello"})

	for _, conn := range []*websocket.Conn{a, b} {
		chat := decode[signaling.ChatPayload](t, recv(t, conn, signaling.MessageTypeChat))
		if chat.Name != "Alice" || chat.Message != "hello" {
			t.Fatalf("chat = %+v, want Alice/hello", chat)
		}
	}

	expectSilence(t, c)
}

func TestDuplicateJoinIsIgnored(t *testing.T) {
	srv := newTestServer(t)

	a := srv.dial(t)
	join(t, a, "r1", "A")
	recv(t, a, signaling.MessageTypeAllUsers)

	// Second join on the same connection: no reply, no state change.
	join(t, a, "r2", "A2")
	expectSilence(t, a)

	if got := srv.registry.UserCount(); got != 1 {
		t.Fatalf("UserCount = %d, want 1 after ignored duplicate join", got)
	}
	if got := srv.registry.MemberCount("r2"); got != 0 {
		t.Fatalf("duplicate join created room r2 with %d members", got)
	}
}

func TestJoinWithTakenUserIDIsIgnored(t *testing.T) {
	srv := newTestServer(t)

	a := srv.dial(t)
	join(t, a, "r1", "A")
	recv(t, a, signaling.MessageTypeAllUsers)

	// A second connection claiming the same identifier is ignored; the
	// original binding must survive.
	imposter := srv.dial(t)
	join(t, imposter, "r1", "A")
	expectSilence(t, imposter)

	b := srv.dial(t)
	join(t, b, "r1", "B")
	recv(t, b, signaling.MessageTypeAllUsers)
	recv(t, a, signaling.MessageTypeUserConnected)

	send(t, b, signaling.MessageTypeOffer, signaling.SignalPayload{
		SDP:    json.RawMessage(`{}`),
		Target: "A",
	})
	offer := recv(t, a, signaling.MessageTypeOffer)
	if p := decode[signaling.SignalPayload](t, offer); p.Sender != "B" {
		t.Fatalf("offer sender = %q, want B", p.Sender)
	}
}

func TestSignalBeforeJoinGetsError(t *testing.T) {
	srv := newTestServer(t)

	c := srv.dial(t)
	send(t, c, signaling.MessageTypeOffer, signaling.SignalPayload{
		SDP:    json.RawMessage(`{}`),
		Target: "A",
	})

	errMsg := decode[signaling.ErrorPayload](t, recv(t, c, signaling.MessageTypeError))
	if errMsg.Error == "" {
		t.Fatal("error payload is empty")
	}
}

func TestDisconnectBeforeJoinHasNoSideEffects(t *testing.T) {
	srv := newTestServer(t)

	a := srv.dial(t)
	join(t, a, "r1", "A")
	recv(t, a, signaling.MessageTypeAllUsers)

	ghost := srv.dial(t)
	ghost.Close()

	// A must not see a departure for a connection that never joined.
	expectSilence(t, a)
	if got := srv.registry.UserCount(); got != 1 {
		t.Fatalf("UserCount = %d, want 1", got)
	}
}

func TestUpgradeRejectsDisallowedOrigin(t *testing.T) {
	cfg := &config.Config{ListenAddr: ":0", StaticDir: t.TempDir(), AllowedOrigins: []string{"https://app.example.com"}}
	registry := signaling.NewRegistry()
	hub := signaling.NewHub(registry)
	go hub.Run()

	ts := httptest.NewServer(server.NewMux(cfg, hub, registry))
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	headers := map[string][]string{"Origin": {"https://evil.example.com"}}
	if c, _, err := websocket.DefaultDialer.Dial(wsURL, headers); err == nil {
		c.Close()
		t.Fatal("dial with disallowed origin succeeded, want handshake failure")
	}

	headers["Origin"] = []string{"https://app.example.com"}
	c, _, err := websocket.DefaultDialer.Dial(wsURL, headers)
	if err != nil {
		t.Fatalf("dial with allowed origin: %v", err)
	}
	c.Close()
}

func TestHealthAndStatsEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.ts.Client().Get(srv.ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("GET /health status = %d", resp.StatusCode)
	}

	a := srv.dial(t)
	join(t, a, "r1", "A")
	recv(t, a, signaling.MessageTypeAllUsers)

	resp, err = srv.ts.Client().Get(srv.ts.URL + "/stats")
	if err != nil {
		t.Fatalf("GET /stats: %v", err)
	}
	defer resp.Body.Close()

	var stats map[string]int
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats["rooms"] != 1 || stats["users"] != 1 {
		t.Fatalf("stats = %v, want rooms=1 users=1", stats)
	}
}
