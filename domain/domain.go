package domain

import (
	"encoding/json"
	"errors"
)

// ConnID is minted by the transport layer and never reused while the
// connection is open.
type ConnID string

// Inbound event names.
const (
	EventSetNickname  = "set-nickname"
	EventCreateRoom   = "create-room"
	EventJoinRoom     = "join-room"
	EventMessage      = "message"
	EventOffer        = "offer"
	EventAnswer       = "answer"
	EventICECandidate = "ice-candidate"
	EventInitiateCall = "initiate-call"
	EventAcceptCall   = "accept-call"
	EventEndCall      = "end-call"
	EventPing         = "ping"
)

// Outbound event names.
const (
	EventWelcome       = "welcome"
	EventNicknameTaken = "nickname-taken"
	EventNicknameSet   = "nickname-set"
	EventRoomCreated   = "room-created"
	EventRoomJoined    = "room-joined"
	EventError         = "error"
	EventIncomingCall  = "incoming-call"
	EventCallAccepted  = "call-accepted"
	EventCallEnded     = "call-ended"
	EventPong          = "pong"
)

var (
	ErrNicknameTaken = errors.New("nickname taken")
	ErrRoomNotFound  = errors.New("room not found")
)

// Event is the wire envelope for every frame in both directions.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

func NewEvent(name string, payload any) Event {
	ev := Event{Name: name}
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			ev.Data = b
		}
	}
	return ev
}

type Connection interface {
	ID() ConnID
	Send(ev Event) error
	Close() error
}

type Registrar interface {
	Register(conn Connection)
	Unregister(conn Connection)
}

// Transport delivery is best effort: a dead recipient is skipped, not
// retried.
type Transport interface {
	SendTo(id ConnID, ev Event) bool
	// An empty exclude means no exclusion. Returns the number of
	// deliveries attempted; an unknown code yields zero.
	BroadcastToRoom(code string, ev Event, exclude ConnID) int
	Subscribe(id ConnID, code string)
	Unsubscribe(id ConnID, code string)
}

type EventHandler interface {
	HandleOpen(conn Connection)
	Handle(conn Connection, data []byte)
	HandleClose(conn Connection)
}
