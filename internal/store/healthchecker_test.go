package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/stine-ri/wings-of-memory/internal/model"
)

type slugLookup struct {
	Memorials
	err error
}

func (s slugLookup) GetBySlug(context.Context, string) (*model.Memorial, error) { return nil, s.err }

type fakeStore struct {
	Store
	memorials slugLookup
}

func (f fakeStore) Memorials() Memorials { return f.memorials }

type pingingStore struct {
	fakeStore
	pingErr error
}

func (p pingingStore) HealthPing(context.Context) error { return p.pingErr }

func TestStoreHealthChecker_Check(t *testing.T) {
	cases := []struct {
		name  string
		store Store
		want  bool
	}{
		{"ping ok", pingingStore{}, true},
		{"ping fails", pingingStore{pingErr: errors.New("database is closed")}, false},
		{"lookup not found", fakeStore{memorials: slugLookup{err: model.ErrNotFound}}, true},
		{"lookup fails", fakeStore{memorials: slugLookup{err: errors.New("connection refused")}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hc := NewStoreHealthChecker(tc.store, zerolog.Nop(), time.Second)
			if hc.IsHealthy() {
				t.Fatal("checker must start unhealthy")
			}
			hc.check(context.Background())
			if got := hc.IsHealthy(); got != tc.want {
				t.Fatalf("IsHealthy() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestStoreHealthChecker_StartStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hc := NewStoreHealthChecker(pingingStore{}, zerolog.Nop(), 0)
	done := make(chan struct{})
	go func() {
		hc.Start(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for !hc.IsHealthy() {
		if time.Now().After(deadline) {
			t.Fatal("checker never became healthy")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
