// Package session holds per-session conversational state behind a small
// repository interface so the backend (memory, sqlite) is swappable without
// touching the engine.
package session

import (
	"context"
	"time"

	"github.com/finchat/advisor/models"
)

// State is everything the engine accumulates for one session: the append-only
// chat history and the merged user profile. It is ephemeral by design; expiry
// or process restart discards it.
type State struct {
	History   []models.Turn      `json:"history"`
	Profile   models.UserProfile `json:"profile"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NewState returns an empty session state.
func NewState() *State {
	return &State{UpdatedAt: time.Now()}
}

// Clone deep-copies the state so a turn can be computed on a snapshot and
// committed with a single Put.
func (s *State) Clone() *State {
	out := &State{
		History:   make([]models.Turn, len(s.History)),
		Profile:   *s.Profile.Clone(),
		UpdatedAt: s.UpdatedAt,
	}
	copy(out.History, s.History)
	return out
}

// Append adds a turn to the history. History is append-only; nothing ever
// truncates or rewrites it.
func (s *State) Append(role, content string) {
	s.History = append(s.History, models.Turn{Role: role, Content: content})
}

// Repository is the opaque-key session store. Get returns a fresh empty state
// for unknown ids; Put replaces the stored state wholesale.
type Repository interface {
	Get(ctx context.Context, id string) (*State, error)
	Put(ctx context.Context, id string, state *State) error
	Close() error
}
