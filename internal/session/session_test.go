package session

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stine-ri/wings-of-memory/internal/localstate"
)

// brokenStorage simulates an unavailable medium.
type brokenStorage struct{ failWrites, failReads bool }

func (b brokenStorage) GetItem(context.Context, string) (string, bool, error) {
	if b.failReads {
		return "", false, localstate.ErrUnavailable
	}
	return "", false, nil
}
func (b brokenStorage) SetItem(context.Context, string, string) error {
	if b.failWrites {
		return localstate.ErrUnavailable
	}
	return nil
}
func (brokenStorage) RemoveItem(context.Context, string) error { return nil }
func (brokenStorage) Keys(context.Context) ([]string, error)   { return nil, errors.New("unused") }

func TestGetOrCreate_StablePerScope(t *testing.T) {
	ctx := context.Background()
	p := NewProvider(localstate.NewMemory())

	a1 := p.GetOrCreate(ctx, MemorialScope("joanne-smith"))
	a2 := p.GetOrCreate(ctx, MemorialScope("joanne-smith"))
	b := p.GetOrCreate(ctx, MemorialScope("other"))

	assert.NotEmpty(t, a1)
	assert.Equal(t, a1, a2)
	assert.NotEqual(t, a1, b)
}

func TestGetOrCreate_PersistsAcrossProviders(t *testing.T) {
	ctx := context.Background()
	store := localstate.NewMemory()

	first := NewProvider(store).CurrentUser(ctx)
	second := NewProvider(store).CurrentUser(ctx)
	assert.Equal(t, first, second)

	v, ok, err := store.GetItem(ctx, CurrentUserKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first, v)
}

func TestGetOrCreate_FallsBackToEphemeral(t *testing.T) {
	ctx := context.Background()
	for _, st := range []brokenStorage{{failWrites: true}, {failReads: true}} {
		calls := 0
		p := NewProvider(st, WithIDGenerator(func() string {
			calls++
			return "generated"
		}))
		id1 := p.ForMemorial(ctx, "m1")
		id2 := p.ForMemorial(ctx, "m1")
		assert.Equal(t, "generated", id1)
		assert.Equal(t, id1, id2)
		assert.Equal(t, 1, calls, "ephemeral identity must be reused")
	}
}

func TestNewID_TimeOrdered(t *testing.T) {
	id := NewID()
	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}
