package protocol

import (
	"encoding/json"
	"errors"
	"log/slog"

	"parley-signaling-server/domain"
	"parley-signaling-server/metrics"
	"parley-signaling-server/registry"
)

// Handler routes inbound events and owns connection lifecycle cleanup.
// It keeps the transport's subscriptions in lockstep with the room
// registry's member lists.
type Handler struct {
	nicknames *registry.NicknameRegistry
	rooms     *registry.RoomRegistry
	transport domain.Transport
}

func NewHandler(nicknames *registry.NicknameRegistry, rooms *registry.RoomRegistry, transport domain.Transport) *Handler {
	return &Handler{
		nicknames: nicknames,
		rooms:     rooms,
		transport: transport,
	}
}

type nicknameData struct {
	Nickname string `json:"nickname"`
}

type roomData struct {
	RoomCode string `json:"roomCode"`
}

type acceptCallData struct {
	RoomCode string `json:"roomCode"`
	CallerID string `json:"callerId"`
}

type pingData struct {
	Timestamp int64 `json:"timestamp"`
}

type pongData struct {
	Timestamp int64         `json:"timestamp"`
	ClientID  domain.ConnID `json:"clientId"`
}

type welcomeData struct {
	ConnectionID domain.ConnID `json:"connectionId"`
}

type errorData struct {
	Message string `json:"message"`
}

// signalData wraps a relayed signaling body with the sender's id so
// recipients can address their reply.
type signalData struct {
	Payload json.RawMessage `json:"payload"`
	Sender  domain.ConnID   `json:"sender"`
}

type callerData struct {
	CallerID domain.ConnID `json:"callerId"`
}

type accepterData struct {
	AccepterID domain.ConnID `json:"accepterId"`
}

// HandleOpen tells the client its connection id. Registry state is
// created lazily by later events, never here.
func (h *Handler) HandleOpen(conn domain.Connection) {
	metrics.ConnectionsActive.Inc()
	conn.Send(domain.NewEvent(domain.EventWelcome, welcomeData{ConnectionID: conn.ID()}))
}

// Handle dispatches one inbound frame. Malformed frames and unknown
// event names are dropped.
func (h *Handler) Handle(conn domain.Connection, data []byte) {
	var ev domain.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		slog.Warn("invalid frame", "clientId", conn.ID(), "error", err)
		return
	}
	metrics.EventsIn.WithLabelValues(eventLabel(ev.Name)).Inc()

	switch ev.Name {
	case domain.EventSetNickname:
		h.setNickname(conn, ev.Data)
	case domain.EventCreateRoom:
		h.createRoom(conn)
	case domain.EventJoinRoom:
		h.joinRoom(conn, ev.Data)
	case domain.EventMessage:
		h.relayMessage(conn, ev)
	case domain.EventOffer, domain.EventAnswer, domain.EventICECandidate:
		h.relaySignal(conn, ev)
	case domain.EventInitiateCall:
		h.initiateCall(conn, ev.Data)
	case domain.EventAcceptCall:
		h.acceptCall(conn, ev.Data)
	case domain.EventEndCall:
		h.endCall(conn, ev.Data)
	case domain.EventPing:
		h.pong(conn, ev.Data)
	default:
		slog.Debug("unknown event", "clientId", conn.ID(), "event", ev.Name)
	}
}

// HandleClose runs disconnect cleanup. Safe for connections that never
// claimed anything.
func (h *Handler) HandleClose(conn domain.Connection) {
	metrics.ConnectionsActive.Dec()

	h.nicknames.Release(conn.ID())
	left := h.rooms.RemoveEverywhere(conn.ID())
	for _, code := range left {
		h.transport.Unsubscribe(conn.ID(), code)
	}
	metrics.RoomsActive.Set(float64(h.rooms.Len()))

	if len(left) > 0 {
		slog.Debug("left rooms on disconnect", "clientId", conn.ID(), "rooms", len(left))
	}
}

func (h *Handler) setNickname(conn domain.Connection, data json.RawMessage) {
	var req nicknameData
	if err := json.Unmarshal(data, &req); err != nil {
		slog.Warn("bad set-nickname payload", "clientId", conn.ID(), "error", err)
		return
	}

	if err := h.nicknames.Claim(conn.ID(), req.Nickname); err != nil {
		if errors.Is(err, domain.ErrNicknameTaken) {
			conn.Send(domain.NewEvent(domain.EventNicknameTaken, nil))
		}
		return
	}
	conn.Send(domain.NewEvent(domain.EventNicknameSet, nicknameData{Nickname: req.Nickname}))
	slog.Info("nickname set", "clientId", conn.ID(), "nickname", req.Nickname)
}

func (h *Handler) createRoom(conn domain.Connection) {
	code := h.rooms.Create(conn.ID())
	h.transport.Subscribe(conn.ID(), code)
	metrics.RoomsActive.Set(float64(h.rooms.Len()))

	conn.Send(domain.NewEvent(domain.EventRoomCreated, roomData{RoomCode: code}))
	slog.Info("room created", "room", code, "clientId", conn.ID())
}

func (h *Handler) joinRoom(conn domain.Connection, data json.RawMessage) {
	var req roomData
	if err := json.Unmarshal(data, &req); err != nil {
		slog.Warn("bad join-room payload", "clientId", conn.ID(), "error", err)
		return
	}

	if err := h.rooms.Join(conn.ID(), req.RoomCode); err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			conn.Send(domain.NewEvent(domain.EventError, errorData{Message: "room not found"}))
		}
		return
	}
	h.transport.Subscribe(conn.ID(), req.RoomCode)
	conn.Send(domain.NewEvent(domain.EventRoomJoined, roomData{RoomCode: req.RoomCode}))
	slog.Info("room joined", "room", req.RoomCode, "clientId", conn.ID())
}

// relayMessage forwards the frame verbatim to the whole room, sender
// included. An unknown room code means zero recipients, not an error.
func (h *Handler) relayMessage(conn domain.Connection, ev domain.Event) {
	code, ok := roomCodeOf(ev.Data)
	if !ok {
		return
	}
	n := h.transport.BroadcastToRoom(code, domain.Event{Name: domain.EventMessage, Data: ev.Data}, "")
	metrics.Deliveries.Add(float64(n))
}

// relaySignal forwards offer/answer/ice-candidate to the other room
// members, tagged with the sender's id.
func (h *Handler) relaySignal(conn domain.Connection, ev domain.Event) {
	code, ok := roomCodeOf(ev.Data)
	if !ok {
		return
	}
	out := domain.NewEvent(ev.Name, signalData{Payload: ev.Data, Sender: conn.ID()})
	n := h.transport.BroadcastToRoom(code, out, conn.ID())
	metrics.Deliveries.Add(float64(n))
}

func (h *Handler) initiateCall(conn domain.Connection, data json.RawMessage) {
	code, ok := roomCodeOf(data)
	if !ok {
		return
	}
	out := domain.NewEvent(domain.EventIncomingCall, callerData{CallerID: conn.ID()})
	n := h.transport.BroadcastToRoom(code, out, "")
	metrics.Deliveries.Add(float64(n))
}

func (h *Handler) acceptCall(conn domain.Connection, data json.RawMessage) {
	var req acceptCallData
	if err := json.Unmarshal(data, &req); err != nil {
		slog.Warn("bad accept-call payload", "clientId", conn.ID(), "error", err)
		return
	}

	out := domain.NewEvent(domain.EventCallAccepted, accepterData{AccepterID: conn.ID()})
	if h.transport.SendTo(domain.ConnID(req.CallerID), out) {
		metrics.Deliveries.Inc()
	} else {
		slog.Debug("accept-call for unknown caller", "clientId", conn.ID(), "callerId", req.CallerID)
	}
}

func (h *Handler) endCall(conn domain.Connection, data json.RawMessage) {
	code, ok := roomCodeOf(data)
	if !ok {
		return
	}
	n := h.transport.BroadcastToRoom(code, domain.NewEvent(domain.EventCallEnded, nil), "")
	metrics.Deliveries.Add(float64(n))
}

func (h *Handler) pong(conn domain.Connection, data json.RawMessage) {
	var req pingData
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			slog.Warn("bad ping payload", "clientId", conn.ID(), "error", err)
			return
		}
	}
	conn.Send(domain.NewEvent(domain.EventPong, pongData{Timestamp: req.Timestamp, ClientID: conn.ID()}))
}

var inboundEvents = map[string]bool{
	domain.EventSetNickname:  true,
	domain.EventCreateRoom:   true,
	domain.EventJoinRoom:     true,
	domain.EventMessage:      true,
	domain.EventOffer:        true,
	domain.EventAnswer:       true,
	domain.EventICECandidate: true,
	domain.EventInitiateCall: true,
	domain.EventAcceptCall:   true,
	domain.EventEndCall:      true,
	domain.EventPing:         true,
}

// eventLabel folds client-supplied event names into a fixed label set
// so one connection cannot mint unbounded metric series.
func eventLabel(name string) string {
	if inboundEvents[name] {
		return name
	}
	return "unknown"
}

// roomCodeOf extracts the routing key from an opaque payload. Frames
// without a usable roomCode are dropped silently.
func roomCodeOf(data json.RawMessage) (string, bool) {
	var req roomData
	if err := json.Unmarshal(data, &req); err != nil || req.RoomCode == "" {
		return "", false
	}
	return req.RoomCode, true
}
