// Copyright (c) 2026 Veriface. All rights reserved.
// Author: dev@veriface.app

package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/veriface/veriface/internal/platform/apperr"
	"github.com/veriface/veriface/internal/platform/sec"
	"github.com/veriface/veriface/internal/users"
)

// # Registry Definitions

// Seed describes the administrator account planted into every new session
// store, so each demo session starts with a working admin login.
type Seed struct {
	Username     string
	Email        string
	FullName     string
	PasswordHash string // Hashed once at startup, shared by all sessions.
}

// Options configures a [Registry].
type Options struct {
	// TTL is the fixed session lifetime from creation.
	TTL time.Duration

	// MaxSize caps the number of live sessions. Zero means unlimited.
	MaxSize int

	// Seed is the admin account planted into every new store.
	Seed Seed
}

// Registry owns every live session, keyed by client identity.
//
// It enforces the one-session-per-identity rule, the global capacity cap,
// and fixed-TTL expiry. Expired sessions are purged lazily on any access
// that touches them and periodically by the sweeper.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	opts Options
	log  *slog.Logger

	now func() time.Time // Injectable for tests.
}

// NewRegistry constructs an empty registry.
func NewRegistry(opts Options, log *slog.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		opts:     opts,
		log:      log,
		now:      time.Now,
	}
}

// seedStore creates a fresh store carrying the admin account.
func (r *Registry) seedStore() (*users.MemoryStore, error) {
	store := users.NewMemoryStore()
	_, err := store.Create(context.Background(), users.CreateParams{
		Username:     r.opts.Seed.Username,
		Email:        r.opts.Seed.Email,
		FullName:     r.opts.Seed.FullName,
		PasswordHash: r.opts.Seed.PasswordHash,
		IsActive:     true,
		IsAdmin:      true,
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// lockedPurgeExpired removes every session past its lifetime.
// Caller must hold mu. Returns the number of sessions removed.
func (r *Registry) lockedPurgeExpired(now time.Time) int {
	removed := 0
	for identity, sess := range r.sessions {
		if sess.ExpiredAt(now) {
			delete(r.sessions, identity)
			removed++
		}
	}
	return removed
}

// # Session Lifecycle

/* Parameters:
   - identity: the client IP requesting a session.
   Returns:
   - The new session, or Conflict when the identity already has a live one,
     or CapacityExceeded when the registry is full even after purging
     expired sessions. */
func (r *Registry) Create(identity string) (*Session, error) {
	if identity == "" {
		return nil, apperr.ValidationError("Client identity could not be determined")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.lockedPurgeExpired(now)

	if _, exists := r.sessions[identity]; exists {
		return nil, apperr.Conflict("An active session already exists for this client")
	}
	if r.opts.MaxSize > 0 && len(r.sessions) >= r.opts.MaxSize {
		return nil, apperr.CapacityExceeded("Session capacity reached, try again later")
	}

	store, err := r.seedStore()
	if err != nil {
		return nil, apperr.Internal(err)
	}

	sess := &Session{
		Identity:  identity,
		CreatedAt: now.UTC(),
		ExpiresAt: now.UTC().Add(r.opts.TTL),
		store:     store,
	}
	r.sessions[identity] = sess

	r.log.Info("session created",
		slog.String("identity", identity),
		slog.Time("expires_at", sess.ExpiresAt),
		slog.Int("live_sessions", len(r.sessions)))
	return sess, nil
}

/* Parameters:
   - identity: the client IP to look up.
   Returns:
   - The live session, or Unauthorized when none exists. An expired
     session is purged on the spot and treated as absent. */
func (r *Registry) Get(identity string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[identity]
	if !ok {
		return nil, apperr.Unauthorized("No active session for this client")
	}
	if sess.ExpiredAt(r.now()) {
		delete(r.sessions, identity)
		r.log.Info("session expired", slog.String("identity", identity))
		return nil, apperr.Unauthorized("Session has expired")
	}
	return sess, nil
}

// Resolve implements [users.StoreResolver]: it maps an identity to its live
// session's store. A valid session token is necessary but not sufficient;
// the session itself must still exist.
func (r *Registry) Resolve(identity string) (users.Repository, error) {
	sess, err := r.Get(identity)
	if err != nil {
		return nil, err
	}
	return sess.store, nil
}

/* Parameters:
   - identity: the client whose session should end.
   Returns:
   - true when a session was removed. Deleting frees the identity for an
     immediate new session. */
func (r *Registry) Delete(identity string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[identity]; !ok {
		return false
	}
	delete(r.sessions, identity)
	r.log.Info("session deleted", slog.String("identity", identity))
	return true
}

// # Maintenance

// SweepExpired purges all expired sessions and returns how many were removed.
func (r *Registry) SweepExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := r.lockedPurgeExpired(r.now())
	if removed > 0 {
		r.log.Info("session sweep",
			slog.Int("removed", removed),
			slog.Int("live_sessions", len(r.sessions)))
	}
	return removed
}

// Count returns the number of live sessions, purging expired ones first.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lockedPurgeExpired(r.now())
	return len(r.sessions)
}

// Summary is the admin-facing registry overview.
type Summary struct {
	LiveSessions int     `json:"live_sessions"`
	MaxSessions  int     `json:"max_sessions"`
	TTLSeconds   float64 `json:"ttl_seconds"`
	Sessions     []Info  `json:"sessions"`
}

// Snapshot returns a point-in-time view of every live session.
func (r *Registry) Snapshot() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.lockedPurgeExpired(now)

	infos := make([]Info, 0, len(r.sessions))
	for _, sess := range r.sessions {
		count, _ := sess.store.Count(context.Background())
		infos = append(infos, Info{
			IPAddress:        sess.Identity,
			CreatedAt:        sess.CreatedAt,
			ExpiresAt:        sess.ExpiresAt,
			RemainingSeconds: sess.RemainingAt(now).Seconds(),
			UserCount:        count,
		})
	}

	return Summary{
		LiveSessions: len(infos),
		MaxSessions:  r.opts.MaxSize,
		TTLSeconds:   r.opts.TTL.Seconds(),
		Sessions:     infos,
	}
}

// StartSweeper runs SweepExpired on the given interval until ctx is done.
// The sweeper bounds how long an abandoned session's store can linger; the
// lazy purges handle correctness in between runs.
func (r *Registry) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.SweepExpired()
			}
		}
	}()
}

// HashSeedPassword prepares a [Seed] password hash once at startup, so
// session creation never pays the bcrypt cost.
func HashSeedPassword(plaintext string) (string, error) {
	return sec.HashPassword(plaintext)
}
