package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, opts...)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_RejectsEmptyURL(t *testing.T) {
	_, err := New("  ")
	require.Error(t, err)

	_, err = New("http://example.com", WithHTTPTimeout(0))
	require.Error(t, err)
}

func TestSearchPublic_QueryAndDecode(t *testing.T) {
	var got map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/memorials/public", r.URL.Path)
		q := r.URL.Query()
		got = map[string]string{"search": q.Get("search"), "sortBy": q.Get("sortBy"), "limit": q.Get("limit"), "offset": q.Get("offset")}
		writeJSON(w, http.StatusOK, map[string]any{
			"memorials":  []map[string]any{{"id": "m1", "slug": "joanne-doe-ab12", "fullName": "Joanne Doe", "visibility": "public"}},
			"pagination": map[string]any{"total": 13, "limit": 12, "offset": 12, "hasMore": false},
		})
	})

	res, err := c.SearchPublic(context.Background(), SearchParams{Search: "Jo", SortBy: SortName, Limit: 12, Offset: 12})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"search": "Jo", "sortBy": "name", "limit": "12", "offset": "12"}, got)
	require.Len(t, res.Memorials, 1)
	assert.Equal(t, "Joanne Doe", res.Memorials[0].FullName)
	assert.Equal(t, 13, res.Pagination.Total)
}

func TestSearchPublic_EmptyIsNotAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"memorials": nil, "pagination": map[string]any{"total": 0}})
	})
	res, err := c.SearchPublic(context.Background(), SearchParams{Search: "nobody"})
	require.NoError(t, err)
	assert.NotNil(t, res.Memorials)
	assert.Empty(t, res.Memorials)
}

func TestMalformedResponseIsDecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"memorials": []map[string]any{{"fullName": "no id"}}})
	})
	_, err := c.SearchPublic(context.Background(), SearchParams{})
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.False(t, IsNetwork(err))
}

func TestDeleteTribute_ForbiddenSurfaced(t *testing.T) {
	var body map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/memorials/public/joanne/tributes/t1", r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &body)
		writeJSON(w, http.StatusForbidden, map[string]any{"error": "Forbidden", "code": 403, "message": "session does not own this tribute"})
	})

	err := c.DeleteTribute(context.Background(), "joanne", "t1", "sess-other")
	require.Error(t, err)
	assert.True(t, IsForbidden(err))
	assert.False(t, IsNotFound(err))
	assert.Equal(t, "sess-other", body["sessionId"])

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "session does not own this tribute", apiErr.Message)
	assert.False(t, apiErr.Recoverable())
}

func TestUpdateTribute_SendsSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, http.MethodPut, r.Method)
		writeJSON(w, http.StatusOK, map[string]any{"id": "t1", "message": in["message"], "sessionId": in["sessionId"]})
	})
	tr, err := c.UpdateTribute(context.Background(), "joanne", "t1", "edited", "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "edited", tr.Message)
	assert.Equal(t, "sess-1", tr.SessionID)
}

func TestNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Not Found", "code": 404})
	})
	_, err := c.GetPublicMemorial(context.Background(), "missing")
	assert.True(t, IsNotFound(err))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestNetworkErrorIsDistinguishable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url, WithHTTPTimeout(2*time.Second))
	require.NoError(t, err)
	_, err = c.SearchPublic(context.Background(), SearchParams{Search: "Jo"})
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
	assert.False(t, IsForbidden(err))
}

func TestCanceledContextIsNetworkError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.SearchPublic(ctx, SearchParams{})
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLogin_InstallsToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			writeJSON(w, http.StatusOK, map[string]any{"token": "tok-1", "user": map[string]any{"id": "u1", "email": "ann@example.com"}})
		case "/memorials":
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Unauthorized"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"memorials": []map[string]any{{"id": "m1", "fullName": "Joanne"}}})
		}
	})

	_, err := c.ListMyMemorials(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)

	auth, err := c.Login(context.Background(), "ann@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", auth.Token)
	assert.Equal(t, "tok-1", c.Token())

	ms, err := c.ListMyMemorials(context.Background())
	require.NoError(t, err)
	require.Len(t, ms, 1)
}

func TestPreviewPDF_ReturnsBytes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/memorials/m1/preview-pdf", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.3 fake"))
	}, WithToken("tok"))
	b, err := c.PreviewPDF(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3 fake", string(b))
}

func TestServerErrorIsRecoverable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	_, err := c.CreateRSVP(context.Background(), "joanne", RSVPRequest{Name: "Ann"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Recoverable())
	assert.Equal(t, "boom", apiErr.Message)
}
