package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stine-ri/wings-of-memory/internal/model"
	"github.com/stine-ri/wings-of-memory/internal/store"
)

const (
	DefaultSearchLimit = 12
	maxSlugBase        = 60
)

// MemorialInput carries the owner-editable fields of a memorial.
type MemorialInput struct {
	FullName   string
	BirthDate  string
	DeathDate  string
	Biography  string
	Location   string
	Visibility string
	Timeline   []model.TimelineEvent
}

type MemorialService struct {
	store    store.Store
	maxLimit int
	log      zerolog.Logger
	now      func() time.Time
}

func NewMemorialService(s store.Store, maxLimit int, log zerolog.Logger) *MemorialService {
	if maxLimit <= 0 {
		maxLimit = 50
	}
	return &MemorialService{store: s, maxLimit: maxLimit, log: log, now: time.Now}
}

func (in MemorialInput) apply(m *model.Memorial) error {
	name := strings.TrimSpace(in.FullName)
	if name == "" {
		return model.NewValidationError("fullName", "is required")
	}
	vis := in.Visibility
	if vis == "" {
		vis = model.VisibilityPublic
	}
	if vis != model.VisibilityPublic && vis != model.VisibilityPrivate {
		return model.NewValidationError("visibility", "must be public or private")
	}
	m.FullName = name
	m.BirthDate = strings.TrimSpace(in.BirthDate)
	m.DeathDate = strings.TrimSpace(in.DeathDate)
	m.Biography = in.Biography
	m.Location = strings.TrimSpace(in.Location)
	m.Visibility = vis
	m.Timeline = in.Timeline
	return nil
}

// Slugify lowercases name and joins its alphanumeric runs with dashes.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}
		if b.Len() >= maxSlugBase {
			break
		}
	}
	s := strings.Trim(b.String(), "-")
	if s == "" {
		return "memorial"
	}
	return s
}

func (s *MemorialService) Create(ctx context.Context, ownerID string, in MemorialInput) (*model.Memorial, error) {
	m := &model.Memorial{OwnerID: ownerID, MemorialID: uuid.NewString()}
	if err := in.apply(m); err != nil {
		return nil, err
	}
	m.Slug = Slugify(m.FullName) + "-" + strings.ReplaceAll(m.MemorialID, "-", "")[:6]
	out, err := s.store.Memorials().Create(ctx, m)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("memorial", out.MemorialID).Str("slug", out.Slug).Msg("memorial created")
	return out, nil
}

// Get resolves a slug or an ID. Private memorials are reported as missing to
// anyone but their owner.
func (s *MemorialService) Get(ctx context.Context, identifier, viewerID string) (*model.Memorial, error) {
	m, err := s.store.Memorials().GetBySlug(ctx, identifier)
	if errors.Is(err, model.ErrNotFound) {
		m, err = s.store.Memorials().GetByID(ctx, identifier)
	}
	if err != nil {
		return nil, err
	}
	if m.Visibility != model.VisibilityPublic && (viewerID == "" || viewerID != m.OwnerID) {
		return nil, model.ErrNotFound
	}
	return m, nil
}

// Detail returns a public memorial with its tributes.
func (s *MemorialService) Detail(ctx context.Context, identifier string) (*model.Memorial, []*model.Tribute, error) {
	m, err := s.Get(ctx, identifier, "")
	if err != nil {
		return nil, nil, err
	}
	ts, err := s.store.Tributes().List(ctx, m.MemorialID)
	if err != nil {
		return nil, nil, err
	}
	return m, ts, nil
}

func (s *MemorialService) ListMine(ctx context.Context, ownerID string) ([]*model.Memorial, error) {
	return s.store.Memorials().ListByOwner(ctx, ownerID)
}

func (s *MemorialService) owned(ctx context.Context, ownerID, memorialID string) (*model.Memorial, error) {
	m, err := s.store.Memorials().GetByID(ctx, memorialID)
	if err != nil {
		return nil, err
	}
	if m.OwnerID != ownerID {
		return nil, model.ErrForbidden
	}
	return m, nil
}

func (s *MemorialService) Update(ctx context.Context, ownerID, memorialID string, in MemorialInput) (*model.Memorial, error) {
	m, err := s.owned(ctx, ownerID, memorialID)
	if err != nil {
		return nil, err
	}
	if err := in.apply(m); err != nil {
		return nil, err
	}
	return s.store.Memorials().Update(ctx, m)
}

func (s *MemorialService) Delete(ctx context.Context, ownerID, memorialID string) error {
	if _, err := s.owned(ctx, ownerID, memorialID); err != nil {
		return err
	}
	if err := s.store.Memorials().Delete(ctx, memorialID); err != nil {
		return err
	}
	s.log.Info().Str("memorial", memorialID).Msg("memorial deleted")
	return nil
}

// SearchPublic clamps the page window and normalizes the sort key before
// querying the store.
func (s *MemorialService) SearchPublic(ctx context.Context, req model.SearchRequest) (*model.SearchResult, error) {
	switch {
	case req.Limit <= 0:
		req.Limit = DefaultSearchLimit
	case req.Limit > s.maxLimit:
		req.Limit = s.maxLimit
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	switch req.SortBy {
	case model.SortRecent, model.SortOldest, model.SortName:
	default:
		req.SortBy = model.SortRecent
	}
	req.Query = strings.TrimSpace(req.Query)

	ms, total, err := s.store.Memorials().SearchPublic(ctx, req)
	if err != nil {
		return nil, err
	}
	if ms == nil {
		ms = []*model.Memorial{}
	}
	return &model.SearchResult{
		Memorials: ms,
		Pagination: model.Pagination{
			Total:   total,
			Limit:   req.Limit,
			Offset:  req.Offset,
			HasMore: req.Offset+len(ms) < total,
		},
	}, nil
}

// PDFData gathers the printable export of an owned memorial.
func (s *MemorialService) PDFData(ctx context.Context, ownerID, memorialID string) (*model.PDFData, error) {
	m, err := s.owned(ctx, ownerID, memorialID)
	if err != nil {
		return nil, err
	}
	ts, err := s.store.Tributes().List(ctx, m.MemorialID)
	if err != nil {
		return nil, err
	}
	if ts == nil {
		ts = []*model.Tribute{}
	}
	return &model.PDFData{Memorial: m, Tributes: ts, GeneratedAt: s.now().UTC()}, nil
}
