// Package storetest is a compliance suite every store.Store implementation runs.
package storetest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/stine-ri/wings-of-memory/internal/model"
	"github.com/stine-ri/wings-of-memory/internal/store"
)

// Run exercises the store contract. makeStore must return an isolated store;
// data created here is tagged with a random token so shared databases work.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()
	token := uuid.NewString()[:8]

	// Users
	email := "ann-" + token + "@example.test"
	u, err := s.Users().Create(ctx, &model.User{Email: email, Name: "Ann", PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.UserID == "" || u.CreationTime.IsZero() {
		t.Fatalf("CreateUser: missing id or time: %+v", u)
	}
	if got, err := s.Users().GetByEmail(ctx, email); err != nil || got.UserID != u.UserID || got.PasswordHash != "hash" {
		t.Fatalf("GetUserByEmail: got=%+v err=%v", got, err)
	}
	if got, err := s.Users().Get(ctx, u.UserID); err != nil || got.Email != email {
		t.Fatalf("GetUser: got=%+v err=%v", got, err)
	}
	if _, err := s.Users().Create(ctx, &model.User{Email: email, PasswordHash: "x"}); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("duplicate email: want ErrConflict, got %v", err)
	}
	if _, err := s.Users().Get(ctx, "missing-"+token); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("missing user: want ErrNotFound, got %v", err)
	}

	// Memorials
	mk := func(name, visibility string) *model.Memorial {
		t.Helper()
		m, err := s.Memorials().Create(ctx, &model.Memorial{
			OwnerID:    u.UserID,
			Slug:       strings.ToLower(strings.ReplaceAll(name, " ", "-")) + "-" + uuid.NewString()[:6],
			FullName:   name,
			Biography:  "token " + token,
			Visibility: visibility,
			Timeline:   []model.TimelineEvent{{Date: "1950", Title: "Born"}},
		})
		if err != nil {
			t.Fatalf("CreateMemorial %s: %v", name, err)
		}
		return m
	}
	joanne := mk("Joanne Doe", model.VisibilityPublic)
	bob := mk("Bob Stone", model.VisibilityPublic)
	mk("alice Brown", model.VisibilityPublic)
	hidden := mk("Hidden Person", model.VisibilityPrivate)

	got, err := s.Memorials().GetBySlug(ctx, joanne.Slug)
	if err != nil || got.MemorialID != joanne.MemorialID {
		t.Fatalf("GetBySlug: got=%+v err=%v", got, err)
	}
	if len(got.Timeline) != 1 || got.Timeline[0].Title != "Born" {
		t.Fatalf("timeline not round-tripped: %+v", got.Timeline)
	}
	if _, err := s.Memorials().Create(ctx, &model.Memorial{OwnerID: u.UserID, Slug: joanne.Slug, FullName: "dup", Visibility: model.VisibilityPublic}); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("duplicate slug: want ErrConflict, got %v", err)
	}

	mine, err := s.Memorials().ListByOwner(ctx, u.UserID)
	if err != nil || len(mine) != 4 {
		t.Fatalf("ListByOwner: n=%d err=%v", len(mine), err)
	}
	if mine[0].MemorialID != hidden.MemorialID {
		t.Fatalf("ListByOwner: want newest first, got %s", mine[0].FullName)
	}

	// Search: only public, filtered by the token, sorted and paginated.
	search := func(sortBy string, limit, offset int) ([]*model.Memorial, int) {
		t.Helper()
		res, total, err := s.Memorials().SearchPublic(ctx, model.SearchRequest{Query: token, SortBy: sortBy, Limit: limit, Offset: offset})
		if err != nil {
			t.Fatalf("SearchPublic: %v", err)
		}
		return res, total
	}
	names := func(ms []*model.Memorial) []string {
		out := make([]string, len(ms))
		for i, m := range ms {
			out[i] = m.FullName
		}
		return out
	}

	res, total := search(model.SortRecent, 10, 0)
	if total != 3 || strings.Join(names(res), ",") != "alice Brown,Bob Stone,Joanne Doe" {
		t.Fatalf("search recent: total=%d names=%v", total, names(res))
	}
	res, _ = search(model.SortOldest, 10, 0)
	if strings.Join(names(res), ",") != "Joanne Doe,Bob Stone,alice Brown" {
		t.Fatalf("search oldest: %v", names(res))
	}
	res, _ = search(model.SortName, 10, 0)
	if strings.Join(names(res), ",") != "alice Brown,Bob Stone,Joanne Doe" {
		t.Fatalf("search name: %v", names(res))
	}
	res, total = search(model.SortName, 2, 2)
	if total != 3 || len(res) != 1 || res[0].FullName != "Joanne Doe" {
		t.Fatalf("search page: total=%d names=%v", total, names(res))
	}
	if res, total, err := s.Memorials().SearchPublic(ctx, model.SearchRequest{Query: "no-such-" + token, Limit: 10}); err != nil || total != 0 || len(res) != 0 {
		t.Fatalf("search no match: total=%d n=%d err=%v", total, len(res), err)
	}
	if res, _, err := s.Memorials().SearchPublic(ctx, model.SearchRequest{Query: "%", Limit: 100}); err != nil {
		t.Fatalf("search wildcard: %v", err)
	} else {
		for _, m := range res {
			if !strings.Contains(m.FullName+m.Biography+m.Location, "%") {
				t.Fatalf("literal %% matched %q", m.FullName)
			}
		}
	}

	bob.Biography = "updated token " + token
	bob.Location = "Oslo"
	updated, err := s.Memorials().Update(ctx, bob)
	if err != nil || updated.Location != "Oslo" || updated.Slug != bob.Slug {
		t.Fatalf("UpdateMemorial: got=%+v err=%v", updated, err)
	}
	if _, err := s.Memorials().Update(ctx, &model.Memorial{MemorialID: "missing-" + token, FullName: "x"}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("update missing memorial: %v", err)
	}

	// Tributes
	t1, err := s.Tributes().Create(ctx, &model.Tribute{MemorialID: joanne.MemorialID, AuthorName: "Ann", Message: "Goodbye, Joanne", SessionID: "sess-a"})
	if err != nil {
		t.Fatalf("CreateTribute: %v", err)
	}
	t2, err := s.Tributes().Create(ctx, &model.Tribute{MemorialID: joanne.MemorialID, AuthorName: "Ben", Message: "Miss you", SessionID: "sess-b"})
	if err != nil {
		t.Fatalf("CreateTribute 2: %v", err)
	}
	list, err := s.Tributes().List(ctx, joanne.MemorialID)
	if err != nil || len(list) != 2 || list[0].TributeID != t2.TributeID {
		t.Fatalf("ListTributes: n=%d err=%v", len(list), err)
	}
	edited, err := s.Tributes().UpdateMessage(ctx, joanne.MemorialID, t1.TributeID, "Rest well")
	if err != nil || edited.Message != "Rest well" || edited.SessionID != "sess-a" {
		t.Fatalf("UpdateTribute: got=%+v err=%v", edited, err)
	}
	if _, err := s.Tributes().Get(ctx, bob.MemorialID, t1.TributeID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("tribute scoped to memorial: %v", err)
	}
	if err := s.Tributes().Delete(ctx, joanne.MemorialID, t2.TributeID); err != nil {
		t.Fatalf("DeleteTribute: %v", err)
	}
	if err := s.Tributes().Delete(ctx, joanne.MemorialID, t2.TributeID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("DeleteTribute twice: %v", err)
	}

	// RSVPs
	if _, err := s.RSVPs().Create(ctx, &model.RSVP{MemorialID: joanne.MemorialID, Name: "Carl", Attendees: 2}); err != nil {
		t.Fatalf("CreateRSVP: %v", err)
	}
	rs, err := s.RSVPs().List(ctx, joanne.MemorialID)
	if err != nil || len(rs) != 1 || rs[0].Attendees != 2 {
		t.Fatalf("ListRSVPs: n=%d err=%v", len(rs), err)
	}

	// Delete cascades
	if err := s.Memorials().Delete(ctx, joanne.MemorialID); err != nil {
		t.Fatalf("DeleteMemorial: %v", err)
	}
	if _, err := s.Memorials().GetByID(ctx, joanne.MemorialID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("deleted memorial still there: %v", err)
	}
	if lst, err := s.Tributes().List(ctx, joanne.MemorialID); err != nil || len(lst) != 0 {
		t.Fatalf("tributes not removed: n=%d err=%v", len(lst), err)
	}
	if lst, err := s.RSVPs().List(ctx, joanne.MemorialID); err != nil || len(lst) != 0 {
		t.Fatalf("rsvps not removed: n=%d err=%v", len(lst), err)
	}
	if err := s.Memorials().Delete(ctx, joanne.MemorialID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("DeleteMemorial twice: %v", err)
	}
}
