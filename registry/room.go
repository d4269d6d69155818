package registry

import (
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/google/uuid"

	"parley-signaling-server/domain"
)

const (
	codeAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxCodeRetries = 100
)

// RoomRegistry owns room creation, membership, and teardown. Member
// lists are slices, not sets: a connection joining twice appears twice
// unless dedupeJoins is set.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string][]domain.ConnID

	codeLength  int
	dedupeJoins bool
}

func NewRoomRegistry(codeLength int, dedupeJoins bool) *RoomRegistry {
	if codeLength <= 0 {
		codeLength = 6
	}
	return &RoomRegistry{
		rooms:       make(map[string][]domain.ConnID),
		codeLength:  codeLength,
		dedupeJoins: dedupeJoins,
	}
}

// Create makes a new room with conn as its sole member. Never fails.
func (r *RoomRegistry) Create(conn domain.ConnID) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := r.freshCode()
	r.rooms[code] = []domain.ConnID{conn}
	return code
}

// Join never removes conn from rooms it is already in.
func (r *RoomRegistry) Join(conn domain.ConnID, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[code]
	if !ok {
		return domain.ErrRoomNotFound
	}
	if r.dedupeJoins && slices.Contains(members, conn) {
		return nil
	}
	r.rooms[code] = append(members, conn)
	return nil
}

// Members returns a copy, empty for unknown codes.
func (r *RoomRegistry) Members(code string) []domain.ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.rooms[code])
}

// RemoveEverywhere strips conn from every room and deletes rooms left
// empty. Returns the codes conn was removed from.
func (r *RoomRegistry) RemoveEverywhere(conn domain.ConnID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []string
	for code, members := range r.rooms {
		trimmed := slices.DeleteFunc(members, func(id domain.ConnID) bool {
			return id == conn
		})
		if len(trimmed) == len(members) {
			continue
		}
		removed = append(removed, code)
		if len(trimmed) == 0 {
			delete(r.rooms, code)
		} else {
			r.rooms[code] = trimmed
		}
	}
	return removed
}

func (r *RoomRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}

// caller holds r.mu; the uuid fallback cannot collide
func (r *RoomRegistry) freshCode() string {
	for range maxCodeRetries {
		code := randomCode(r.codeLength)
		if _, exists := r.rooms[code]; !exists {
			return code
		}
	}
	return uuid.NewString()
}

func randomCode(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = codeAlphabet[rand.IntN(len(codeAlphabet))]
	}
	return string(b)
}
