package registry

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley-signaling-server/domain"
)

func TestNicknameRegistry_Claim(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*NicknameRegistry)
		conn    domain.ConnID
		claim   string
		wantErr error
	}{
		{
			name:  "fresh nickname succeeds",
			setup: func(r *NicknameRegistry) {},
			conn:  "c1",
			claim: "alice",
		},
		{
			name: "duplicate nickname fails",
			setup: func(r *NicknameRegistry) {
				require.NoError(t, r.Claim("c1", "alice"))
			},
			conn:    "c2",
			claim:   "alice",
			wantErr: domain.ErrNicknameTaken,
		},
		{
			name: "re-claiming own nickname fails",
			setup: func(r *NicknameRegistry) {
				require.NoError(t, r.Claim("c1", "alice"))
			},
			conn:    "c1",
			claim:   "alice",
			wantErr: domain.ErrNicknameTaken,
		},
		{
			name: "matching is exact, not case-insensitive",
			setup: func(r *NicknameRegistry) {
				require.NoError(t, r.Claim("c1", "alice"))
			},
			conn:  "c2",
			claim: "Alice",
		},
		{
			name: "released nickname is reusable",
			setup: func(r *NicknameRegistry) {
				require.NoError(t, r.Claim("c1", "alice"))
				r.Release("c1")
			},
			conn:  "c2",
			claim: "alice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewNicknameRegistry()
			tt.setup(r)

			err := r.Claim(tt.conn, tt.claim)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			name, ok := r.Lookup(tt.conn)
			require.True(t, ok)
			assert.Equal(t, tt.claim, name)
		})
	}
}

func TestNicknameRegistry_FailedClaimLeavesOwnerUntouched(t *testing.T) {
	r := NewNicknameRegistry()
	require.NoError(t, r.Claim("c1", "alice"))

	err := r.Claim("c2", "alice")
	require.ErrorIs(t, err, domain.ErrNicknameTaken)

	name, ok := r.Lookup("c1")
	require.True(t, ok)
	assert.Equal(t, "alice", name)

	_, ok = r.Lookup("c2")
	assert.False(t, ok)
}

func TestNicknameRegistry_ClaimReplacesPrevious(t *testing.T) {
	r := NewNicknameRegistry()
	require.NoError(t, r.Claim("c1", "alice"))
	require.NoError(t, r.Claim("c1", "alicia"))

	name, ok := r.Lookup("c1")
	require.True(t, ok)
	assert.Equal(t, "alicia", name)

	// the old nickname is free again
	assert.NoError(t, r.Claim("c2", "alice"))
}

func TestNicknameRegistry_ReleaseIdempotent(t *testing.T) {
	r := NewNicknameRegistry()
	r.Release("ghost")

	require.NoError(t, r.Claim("c1", "alice"))
	r.Release("c1")
	r.Release("c1")

	_, ok := r.Lookup("c1")
	assert.False(t, ok)
}

func TestNicknameRegistry_ConcurrentClaimsSingleWinner(t *testing.T) {
	r := NewNicknameRegistry()

	const claimers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := range claimers {
		wg.Add(1)
		go func(conn domain.ConnID) {
			defer wg.Done()
			if err := r.Claim(conn, "alice"); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			} else {
				assert.True(t, errors.Is(err, domain.ErrNicknameTaken))
			}
		}(domain.ConnID(fmt.Sprintf("c%d", i)))
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}
