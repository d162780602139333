package store

import (
	"context"
	"strings"

	"github.com/stine-ri/wings-of-memory/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (sqlite, postgres).
// Missing rows are reported as model.ErrNotFound and unique violations as
// model.ErrConflict.
type Store interface {
	Users() Users
	Memorials() Memorials
	Tributes() Tributes
	RSVPs() RSVPs
	Close() error
}

type Users interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	Get(ctx context.Context, userID string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

type Memorials interface {
	Create(ctx context.Context, m *model.Memorial) (*model.Memorial, error)
	GetByID(ctx context.Context, memorialID string) (*model.Memorial, error)
	GetBySlug(ctx context.Context, slug string) (*model.Memorial, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Memorial, error)
	// Update overwrites the editable fields and bumps UpdateTime.
	Update(ctx context.Context, m *model.Memorial) (*model.Memorial, error)
	// Delete removes the memorial with its tributes and RSVPs.
	Delete(ctx context.Context, memorialID string) error
	// SearchPublic returns one page of public memorials and the total match count.
	SearchPublic(ctx context.Context, req model.SearchRequest) ([]*model.Memorial, int, error)
}

type Tributes interface {
	Create(ctx context.Context, t *model.Tribute) (*model.Tribute, error)
	Get(ctx context.Context, memorialID, tributeID string) (*model.Tribute, error)
	// List returns newest first.
	List(ctx context.Context, memorialID string) ([]*model.Tribute, error)
	UpdateMessage(ctx context.Context, memorialID, tributeID, message string) (*model.Tribute, error)
	Delete(ctx context.Context, memorialID, tributeID string) error
}

type RSVPs interface {
	Create(ctx context.Context, r *model.RSVP) (*model.RSVP, error)
	List(ctx context.Context, memorialID string) ([]*model.RSVP, error)
}

// LikePattern builds a case-insensitive substring pattern for LIKE ... ESCAPE '\'.
func LikePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(strings.TrimSpace(q))) + "%"
}

// OrderClause maps a sort key to ORDER BY columns. Column names are passed in
// since the drivers use different naming.
func OrderClause(sortBy, created, name, tiebreak string) string {
	switch sortBy {
	case model.SortOldest:
		return created + " ASC, " + tiebreak + " ASC"
	case model.SortName:
		return "LOWER(" + name + ") ASC, " + created + " DESC"
	default:
		return created + " DESC, " + tiebreak + " DESC"
	}
}
