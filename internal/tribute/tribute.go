// Package tribute manages tributes on a public memorial from one browser's
// point of view: which ones the local session may change, remote CRUD, and
// likes kept only in local storage.
package tribute

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/stine-ri/wings-of-memory/client"
	"github.com/stine-ri/wings-of-memory/internal/localstate"
)

// ForbiddenMessage is shown when the backend or the local check refuses a change.
const ForbiddenMessage = "You can only modify tributes you wrote"

var (
	ErrForbidden    = errors.New("tribute belongs to another session")
	ErrEmptyMessage = errors.New("tribute message is required")
)

// CanModify reports whether sessionID created t. It only decides what the UI
// offers; the backend makes the real decision.
func CanModify(t client.Tribute, sessionID string) bool {
	return sessionID != "" && t.SessionID == sessionID
}

// UserMessage turns a Board error into text for the person at the keyboard.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrForbidden):
		return ForbiddenMessage
	case errors.Is(err, ErrEmptyMessage):
		return "Please write a message"
	case client.IsNotFound(err):
		return "This tribute no longer exists"
	case client.IsNetwork(err):
		return "Could not reach the server, please try again"
	default:
		return "Something went wrong, please try again"
	}
}

// Remote is the backend subset a Board uses. *client.Client implements it.
type Remote interface {
	ListTributes(ctx context.Context, identifier string) ([]client.Tribute, error)
	CreateTribute(ctx context.Context, identifier, authorName, message, sessionID string) (*client.Tribute, error)
	UpdateTribute(ctx context.Context, identifier, tributeID, message, sessionID string) (*client.Tribute, error)
	DeleteTribute(ctx context.Context, identifier, tributeID, sessionID string) error
}

// Sessions hands out the per-memorial session identity.
type Sessions interface {
	ForMemorial(ctx context.Context, identifier string) string
}

type Option func(*Board)

func WithLogger(l zerolog.Logger) Option { return func(b *Board) { b.log = l } }

// Board is the tribute list of one memorial.
type Board struct {
	memorial string
	remote   Remote
	sessions Sessions
	kv       localstate.Storage
	log      zerolog.Logger
}

func NewBoard(memorial string, remote Remote, sessions Sessions, kv localstate.Storage, opts ...Option) *Board {
	b := &Board{memorial: memorial, remote: remote, sessions: sessions, kv: kv, log: zerolog.Nop()}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Session returns this browser's identity for the memorial, creating it on
// first use.
func (b *Board) Session(ctx context.Context) string {
	return b.sessions.ForMemorial(ctx, b.memorial)
}

func (b *Board) List(ctx context.Context) ([]client.Tribute, error) {
	return b.remote.ListTributes(ctx, b.memorial)
}

// Find returns the tribute with id from the remote list.
func (b *Board) Find(ctx context.Context, id string) (client.Tribute, error) {
	list, err := b.List(ctx)
	if err != nil {
		return client.Tribute{}, err
	}
	for _, t := range list {
		if t.ID == id {
			return t, nil
		}
	}
	return client.Tribute{}, fmt.Errorf("tribute %s: %w", id, client.ErrNotFound)
}

// Post creates a tribute attributed to the memorial session. An empty author
// is sent as "Anonymous".
func (b *Board) Post(ctx context.Context, author, message string) (*client.Tribute, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	author = strings.TrimSpace(author)
	if author == "" {
		author = "Anonymous"
	}
	return b.remote.CreateTribute(ctx, b.memorial, author, message, b.Session(ctx))
}

// Edit replaces the message of t.
func (b *Board) Edit(ctx context.Context, t client.Tribute, message string) (*client.Tribute, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	sid := b.Session(ctx)
	if !CanModify(t, sid) {
		return nil, ErrForbidden
	}
	out, err := b.remote.UpdateTribute(ctx, b.memorial, t.ID, message, sid)
	if err != nil {
		return nil, b.mapRemote("edit", t.ID, err)
	}
	return out, nil
}

// Delete removes t and forgets its like.
func (b *Board) Delete(ctx context.Context, t client.Tribute) error {
	sid := b.Session(ctx)
	if !CanModify(t, sid) {
		return ErrForbidden
	}
	if err := b.remote.DeleteTribute(ctx, b.memorial, t.ID, sid); err != nil {
		return b.mapRemote("delete", t.ID, err)
	}
	liked, err := b.loadLikes(ctx)
	if err != nil {
		b.log.Warn().Err(err).Str("tribute", t.ID).Msg("could not forget like")
		return nil
	}
	if liked[t.ID] {
		delete(liked, t.ID)
		if err := b.saveLikes(ctx, liked); err != nil {
			b.log.Warn().Err(err).Str("tribute", t.ID).Msg("could not forget like")
		}
	}
	return nil
}

func (b *Board) mapRemote(op, id string, err error) error {
	if client.IsForbidden(err) {
		b.log.Info().Str("op", op).Str("tribute", id).Msg("backend refused tribute change")
		return fmt.Errorf("%w: %w", ErrForbidden, err)
	}
	return err
}

func (b *Board) likesKey() string { return "likedTributes:" + b.memorial }

// ToggleLike flips the local like of a tribute and returns the new state.
// Likes never leave this device.
func (b *Board) ToggleLike(ctx context.Context, id string) (bool, error) {
	liked, err := b.loadLikes(ctx)
	if err != nil {
		return false, err
	}
	now := !liked[id]
	if now {
		liked[id] = true
	} else {
		delete(liked, id)
	}
	if err := b.saveLikes(ctx, liked); err != nil {
		return !now, err
	}
	return now, nil
}

func (b *Board) Liked(ctx context.Context, id string) bool {
	liked, err := b.loadLikes(ctx)
	if err != nil {
		b.log.Warn().Err(err).Str("memorial", b.memorial).Msg("liked tributes unreadable")
		return false
	}
	return liked[id]
}

// loadLikes treats absent or corrupt data as no likes and returns read errors,
// so a write never replaces likes it could not read.
func (b *Board) loadLikes(ctx context.Context) (map[string]bool, error) {
	out := map[string]bool{}
	raw, ok, err := b.kv.GetItem(ctx, b.likesKey())
	if err != nil {
		return nil, fmt.Errorf("read liked tributes: %w", err)
	}
	if !ok || raw == "" {
		return out, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		b.log.Warn().Err(err).Str("memorial", b.memorial).Msg("liked tributes corrupt; starting empty")
		return out, nil
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (b *Board) saveLikes(ctx context.Context, liked map[string]bool) error {
	ids := make([]string, 0, len(liked))
	for id := range liked {
		ids = append(ids, id)
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return b.kv.SetItem(ctx, b.likesKey(), string(raw))
}
