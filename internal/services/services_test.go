package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stine-ri/wings-of-memory/internal/auth"
	"github.com/stine-ri/wings-of-memory/internal/model"
	"github.com/stine-ri/wings-of-memory/internal/store"
	"github.com/stine-ri/wings-of-memory/internal/store/sqlite"
)

type fixture struct {
	store     store.Store
	auth      *AuthService
	memorials *MemorialService
	tributes  *TributeService
	rsvps     *RSVPService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "svc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	tokens, err := auth.NewTokens("test-secret", "wings-test", time.Hour)
	require.NoError(t, err)
	log := zerolog.Nop()
	ms := NewMemorialService(s, 5, log)
	return &fixture{
		store:     s,
		auth:      NewAuthService(s, tokens, log),
		memorials: ms,
		tributes:  NewTributeService(s, ms, log),
		rsvps:     NewRSVPService(s, ms, log),
	}
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.auth.Register(ctx, RegisterInput{Name: "Ann", Email: "  Ann@Example.COM ", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", res.User.Email)
	assert.NotEmpty(t, res.Token)

	p, err := f.auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.UserID, p.UserID)

	_, err = f.auth.Register(ctx, RegisterInput{Email: "ann@example.com", Password: "another pass"})
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = f.auth.Register(ctx, RegisterInput{Email: "bob@example.com", Password: "short"})
	assert.True(t, model.IsValidationError(err))

	logged, err := f.auth.Login(ctx, "ANN@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, res.User.UserID, logged.User.UserID)

	_, err = f.auth.Login(ctx, "ann@example.com", "wrong password")
	assert.ErrorIs(t, err, model.ErrUnauthorized)
	_, err = f.auth.Login(ctx, "nobody@example.com", "whatever1")
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	_, err = f.auth.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "joanne-o-brien", Slugify("  Joanne O'Brien "))
	assert.Equal(t, "memorial", Slugify("!!!"))
	assert.LessOrEqual(t, len(Slugify(strings.Repeat("a", 200))), maxSlugBase)
}

func TestMemorialVisibilityAndOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pub, err := f.memorials.Create(ctx, "owner-1", MemorialInput{FullName: "Joanne Smith"})
	require.NoError(t, err)
	assert.Equal(t, model.VisibilityPublic, pub.Visibility)
	assert.True(t, strings.HasPrefix(pub.Slug, "joanne-smith-"))

	priv, err := f.memorials.Create(ctx, "owner-1", MemorialInput{FullName: "Hidden", Visibility: model.VisibilityPrivate})
	require.NoError(t, err)

	got, err := f.memorials.Get(ctx, pub.Slug, "")
	require.NoError(t, err)
	assert.Equal(t, pub.MemorialID, got.MemorialID)
	got, err = f.memorials.Get(ctx, pub.MemorialID, "")
	require.NoError(t, err)
	assert.Equal(t, pub.Slug, got.Slug)

	_, err = f.memorials.Get(ctx, priv.MemorialID, "")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = f.memorials.Get(ctx, priv.MemorialID, "owner-2")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = f.memorials.Get(ctx, priv.MemorialID, "owner-1")
	assert.NoError(t, err)

	_, err = f.memorials.Create(ctx, "owner-1", MemorialInput{FullName: "x", Visibility: "friends"})
	assert.True(t, model.IsValidationError(err))
	_, err = f.memorials.Create(ctx, "owner-1", MemorialInput{FullName: "  "})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = f.memorials.Update(ctx, "owner-2", pub.MemorialID, MemorialInput{FullName: "Stolen"})
	assert.ErrorIs(t, err, model.ErrForbidden)
	upd, err := f.memorials.Update(ctx, "owner-1", pub.MemorialID, MemorialInput{FullName: "Joanne M. Smith", Location: "Nairobi"})
	require.NoError(t, err)
	assert.Equal(t, "Nairobi", upd.Location)
	assert.Equal(t, pub.Slug, upd.Slug, "slug survives renames")

	mine, err := f.memorials.ListMine(ctx, "owner-1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	assert.ErrorIs(t, f.memorials.Delete(ctx, "owner-2", pub.MemorialID), model.ErrForbidden)
	require.NoError(t, f.memorials.Delete(ctx, "owner-1", pub.MemorialID))
	assert.ErrorIs(t, f.memorials.Delete(ctx, "owner-1", pub.MemorialID), model.ErrNotFound)
}

func TestSearchPublicClampsAndPaginates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, n := range []string{"Ann", "Bea", "Cal", "Dan", "Eve", "Fay", "Gus"} {
		_, err := f.memorials.Create(ctx, "o", MemorialInput{FullName: n})
		require.NoError(t, err)
	}
	_, err := f.memorials.Create(ctx, "o", MemorialInput{FullName: "Private Pat", Visibility: model.VisibilityPrivate})
	require.NoError(t, err)

	res, err := f.memorials.SearchPublic(ctx, model.SearchRequest{Limit: 500, SortBy: "bogus"})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Pagination.Limit)
	assert.Equal(t, 7, res.Pagination.Total)
	assert.True(t, res.Pagination.HasMore)
	assert.Len(t, res.Memorials, 5)

	res, err = f.memorials.SearchPublic(ctx, model.SearchRequest{SortBy: model.SortName, Offset: 5, Limit: 5})
	require.NoError(t, err)
	require.Len(t, res.Memorials, 2)
	assert.Equal(t, "Fay", res.Memorials[0].FullName)
	assert.False(t, res.Pagination.HasMore)

	res, err = f.memorials.SearchPublic(ctx, model.SearchRequest{Query: "zzz"})
	require.NoError(t, err)
	assert.NotNil(t, res.Memorials)
	assert.Empty(t, res.Memorials)
	assert.Equal(t, DefaultSearchLimit, 12)
}

func TestTributeSessionOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m, err := f.memorials.Create(ctx, "o", MemorialInput{FullName: "Joanne"})
	require.NoError(t, err)

	tr, err := f.tributes.Create(ctx, m.Slug, TributeInput{Message: "  Rest well  ", SessionID: "session-a"})
	require.NoError(t, err)
	assert.Equal(t, "Anonymous", tr.AuthorName)
	assert.Equal(t, "Rest well", tr.Message)

	_, err = f.tributes.Create(ctx, m.Slug, TributeInput{Message: "hi"})
	assert.True(t, model.IsValidationError(err))
	_, err = f.tributes.Create(ctx, m.Slug, TributeInput{Message: " ", SessionID: "s"})
	assert.True(t, model.IsValidationError(err))

	_, err = f.tributes.Update(ctx, m.Slug, tr.TributeID, "hijack", "session-b")
	assert.ErrorIs(t, err, model.ErrForbidden)
	assert.ErrorIs(t, f.tributes.Delete(ctx, m.Slug, tr.TributeID, "session-b"), model.ErrForbidden)
	assert.ErrorIs(t, f.tributes.Delete(ctx, m.Slug, tr.TributeID, ""), model.ErrForbidden)

	upd, err := f.tributes.Update(ctx, m.MemorialID, tr.TributeID, "Rest well, friend", "session-a")
	require.NoError(t, err)
	assert.Equal(t, "Rest well, friend", upd.Message)

	list, err := f.tributes.List(ctx, m.Slug)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, f.tributes.Delete(ctx, m.Slug, tr.TributeID, "session-a"))
	list, err = f.tributes.List(ctx, m.Slug)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, f.tributes.Delete(ctx, m.Slug, tr.TributeID, "session-a"), model.ErrNotFound)
}

func TestTributesOnPrivateMemorialAreHidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m, err := f.memorials.Create(ctx, "o", MemorialInput{FullName: "Quiet", Visibility: model.VisibilityPrivate})
	require.NoError(t, err)
	_, err = f.tributes.Create(ctx, m.MemorialID, TributeInput{Message: "hi", SessionID: "s"})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRSVP(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m, err := f.memorials.Create(ctx, "owner", MemorialInput{FullName: "Joanne"})
	require.NoError(t, err)

	r, err := f.rsvps.Create(ctx, m.Slug, RSVPInput{Name: "Ann", Email: "ann@example.com", Phone: "+254 700 000 000"})
	require.NoError(t, err)
	assert.Equal(t, 1, r.Attendees)

	cases := []RSVPInput{
		{Name: ""},
		{Name: "Bo", Email: "not-an-email"},
		{Name: "Bo", Phone: "call me"},
		{Name: "Bo", Attendees: 21},
		{Name: "Bo", Attendees: -1},
	}
	for _, in := range cases {
		_, err := f.rsvps.Create(ctx, m.Slug, in)
		assert.True(t, model.IsValidationError(err), "%+v", in)
	}

	list, err := f.rsvps.List(ctx, "owner", m.MemorialID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	_, err = f.rsvps.List(ctx, "someone-else", m.MemorialID)
	assert.True(t, errors.Is(err, model.ErrForbidden))
}

func TestPDFData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fixed := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	f.memorials.now = func() time.Time { return fixed }

	m, err := f.memorials.Create(ctx, "owner", MemorialInput{FullName: "Joanne"})
	require.NoError(t, err)
	data, err := f.memorials.PDFData(ctx, "owner", m.MemorialID)
	require.NoError(t, err)
	assert.Equal(t, fixed, data.GeneratedAt)
	assert.NotNil(t, data.Tributes)

	_, err = f.memorials.PDFData(ctx, "intruder", m.MemorialID)
	assert.ErrorIs(t, err, model.ErrForbidden)
}
