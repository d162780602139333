package tribute

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stine-ri/wings-of-memory/client"
	"github.com/stine-ri/wings-of-memory/internal/localstate"
	"github.com/stine-ri/wings-of-memory/internal/session"
)

// flakyKV fails the next GetItem of failKey, then behaves normally.
type flakyKV struct {
	localstate.Storage
	failKey string
	fail    bool
}

var errLocked = errors.New("database is locked")

func (f *flakyKV) GetItem(ctx context.Context, key string) (string, bool, error) {
	if f.fail && key == f.failKey {
		f.fail = false
		return "", false, errLocked
	}
	return f.Storage.GetItem(ctx, key)
}

type fakeRemote struct {
	tributes []client.Tribute
	calls    []string
	err      error
}

func (f *fakeRemote) ListTributes(context.Context, string) ([]client.Tribute, error) {
	f.calls = append(f.calls, "list")
	return f.tributes, f.err
}

func (f *fakeRemote) CreateTribute(_ context.Context, _, author, message, sid string) (*client.Tribute, error) {
	f.calls = append(f.calls, "create")
	if f.err != nil {
		return nil, f.err
	}
	t := client.Tribute{ID: "t-new", AuthorName: author, Message: message, SessionID: sid}
	f.tributes = append(f.tributes, t)
	return &t, nil
}

func (f *fakeRemote) UpdateTribute(_ context.Context, _, id, message, sid string) (*client.Tribute, error) {
	f.calls = append(f.calls, "update")
	if f.err != nil {
		return nil, f.err
	}
	return &client.Tribute{ID: id, Message: message, SessionID: sid}, nil
}

func (f *fakeRemote) DeleteTribute(context.Context, string, string, string) error {
	f.calls = append(f.calls, "delete")
	return f.err
}

func newBoard(t *testing.T, remote Remote) (*Board, localstate.Storage) {
	t.Helper()
	kv := localstate.NewMemory()
	return NewBoard("joanne-doe", remote, session.NewProvider(kv), kv), kv
}

func TestCanModify(t *testing.T) {
	tr := client.Tribute{ID: "t1", SessionID: "abc"}
	assert.True(t, CanModify(tr, "abc"))
	assert.False(t, CanModify(tr, "xyz"))
	assert.False(t, CanModify(client.Tribute{}, ""))
}

func TestPost_UsesMemorialSession(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{}
	b, kv := newBoard(t, remote)

	tr, err := b.Post(ctx, "", "  Rest well  ")
	require.NoError(t, err)
	assert.Equal(t, "Anonymous", tr.AuthorName)
	assert.Equal(t, "Rest well", tr.Message)

	stored, ok, err := kv.GetItem(ctx, session.MemorialScope("joanne-doe"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, stored, tr.SessionID)
	assert.True(t, CanModify(*tr, b.Session(ctx)))

	_, err = b.Post(ctx, "Ann", "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestEditDelete_LocalCheckSkipsNetwork(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{}
	b, _ := newBoard(t, remote)
	foreign := client.Tribute{ID: "t1", SessionID: "someone-else"}

	_, err := b.Edit(ctx, foreign, "changed")
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, b.Delete(ctx, foreign), ErrForbidden)
	assert.Empty(t, remote.calls)
	assert.Equal(t, ForbiddenMessage, UserMessage(err))
}

func TestDelete_RemoteForbiddenIsSurfaced(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"Forbidden","code":403,"message":"session does not own this tribute"}`))
	}))
	defer srv.Close()

	c, err := client.New(srv.URL)
	require.NoError(t, err)
	b, _ := newBoard(t, c)

	// the local copy claims ownership; the backend disagrees
	mine := client.Tribute{ID: "t1", SessionID: b.Session(ctx)}
	err = b.Delete(ctx, mine)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.True(t, client.IsForbidden(err))
	assert.Equal(t, ForbiddenMessage, UserMessage(err))
}

func TestEdit_Owned(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{}
	b, _ := newBoard(t, remote)
	mine := client.Tribute{ID: "t1", SessionID: b.Session(ctx)}

	out, err := b.Edit(ctx, mine, "updated")
	require.NoError(t, err)
	assert.Equal(t, "updated", out.Message)
	assert.Equal(t, []string{"update"}, remote.calls)
}

func TestLikes_LocalOnly(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{}
	b, kv := newBoard(t, remote)

	liked, err := b.ToggleLike(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.True(t, b.Liked(ctx, "t1"))

	other := NewBoard("someone-else", remote, session.NewProvider(kv), kv)
	assert.False(t, other.Liked(ctx, "t1"), "likes are per memorial")

	liked, err = b.ToggleLike(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Empty(t, remote.calls)

	_, err = b.ToggleLike(ctx, "t2")
	require.NoError(t, err)
	require.NoError(t, b.Delete(ctx, client.Tribute{ID: "t2", SessionID: b.Session(ctx)}))
	assert.False(t, b.Liked(ctx, "t2"))
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{tributes: []client.Tribute{{ID: "a"}, {ID: "b"}}}
	b, _ := newBoard(t, remote)

	got, err := b.Find(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "b", got.ID)

	_, err = b.Find(ctx, "zz")
	assert.True(t, client.IsNotFound(err))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "Could not reach the server, please try again",
		UserMessage(&client.NetworkError{Op: "x", Err: errors.New("dial")}))
	assert.Equal(t, "Something went wrong, please try again", UserMessage(errors.New("x")))
}

func TestToggleLike_FailedReadKeepsLikes(t *testing.T) {
	ctx := context.Background()
	kv := &flakyKV{Storage: localstate.NewMemory(), failKey: "likedTributes:joanne-doe"}
	b := NewBoard("joanne-doe", &fakeRemote{}, session.NewProvider(kv), kv)

	_, err := b.ToggleLike(ctx, "t1")
	require.NoError(t, err)

	kv.fail = true
	_, err = b.ToggleLike(ctx, "t2")
	require.ErrorIs(t, err, errLocked)

	assert.True(t, b.Liked(ctx, "t1"))
	assert.False(t, b.Liked(ctx, "t2"))
}
