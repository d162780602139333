// Package session hands out the anonymous per-browser identities used to
// attribute memories and tributes. An identity only gates edits in the local
// UI; it proves nothing to a server.
package session

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stine-ri/wings-of-memory/internal/localstate"
)

const (
	// CurrentUserKey scopes the identity that authors wall memories.
	CurrentUserKey = "currentUserId"

	memorialPrefix = "memorial_session_"
)

// MemorialScope returns the storage key of the identity used for tributes on
// one memorial.
func MemorialScope(identifier string) string {
	return memorialPrefix + identifier
}

// Provider creates identities lazily and persists them. It never fails: when
// storage is unusable the identity lives in memory for the process lifetime.
type Provider struct {
	store localstate.Storage
	log   zerolog.Logger
	newID func() string

	mu        sync.Mutex
	ephemeral map[string]string
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger used for storage fallbacks.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Provider) { p.log = l }
}

// WithIDGenerator replaces the identifier generator.
func WithIDGenerator(f func() string) Option {
	return func(p *Provider) { p.newID = f }
}

// NewProvider returns a Provider persisting into store.
func NewProvider(store localstate.Storage, opts ...Option) *Provider {
	p := &Provider{
		store:     store,
		log:       zerolog.Nop(),
		newID:     NewID,
		ephemeral: make(map[string]string),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// GetOrCreate returns the identity for scopeKey, generating and persisting
// one on first use.
func (p *Provider) GetOrCreate(ctx context.Context, scopeKey string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if id, ok := p.ephemeral[scopeKey]; ok {
		return id
	}

	v, ok, err := p.store.GetItem(ctx, scopeKey)
	if err == nil && ok && strings.TrimSpace(v) != "" {
		return v
	}
	if err != nil {
		p.log.Warn().Err(err).Str("scope", scopeKey).Msg("session storage read failed; using ephemeral identity")
		id := p.newID()
		p.ephemeral[scopeKey] = id
		return id
	}

	id := p.newID()
	if err := p.store.SetItem(ctx, scopeKey, id); err != nil {
		p.log.Warn().Err(err).Str("scope", scopeKey).Msg("session storage write failed; using ephemeral identity")
		p.ephemeral[scopeKey] = id
	}
	return id
}

// CurrentUser is the identity that authors local wall memories.
func (p *Provider) CurrentUser(ctx context.Context) string {
	return p.GetOrCreate(ctx, CurrentUserKey)
}

// ForMemorial is the identity used for tributes on the given memorial.
func (p *Provider) ForMemorial(ctx context.Context, identifier string) string {
	return p.GetOrCreate(ctx, MemorialScope(identifier))
}

// NewID returns a time-ordered identifier: a UUIDv7, whose leading bits are
// the creation time in milliseconds and whose tail is random.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Random source failed; fall back to base-36 time plus a v4 suffix.
		return strconv.FormatInt(time.Now().UnixMilli(), 36) + "-" + uuid.NewString()[:8]
	}
	return id.String()
}
