package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestGetSessionDecodesSuccessResponse(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/session", r.URL.Path)
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(Session{
			Token: "tok-2", UserID: "user-1", AccountID: "acct-1",
			ExpiresAt: time.Now().Add(time.Hour),
		})
	})
	c := NewIdentityClient(srv.URL, WithToken("tok-1"))

	sess, err := c.GetSession(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-2", sess.Token)
}

func TestRefreshSessionUpdatesClientToken(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		_ = json.NewEncoder(w).Encode(Session{Token: "fresh-token", ExpiresAt: time.Now().Add(time.Hour)})
	})
	c := NewIdentityClient(srv.URL, WithToken("stale-token"))

	sess, err := c.RefreshSession(context.Background())
	require.NoError(t, err)
	require.Equal(t, "fresh-token", sess.Token)
	require.Equal(t, "fresh-token", c.token)
}

func TestGetJSONParsesTypedAPIError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(errorResponse{Code: "SESSION_EXPIRED", Message: "session expired"})
	})
	c := NewIdentityClient(srv.URL)

	_, err := c.Me(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.IsUnauthorized())
	require.Equal(t, "SESSION_EXPIRED", apiErr.Code)
}

func TestGetJSONParsesPlainTextErrorBody(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("upstream unavailable"))
	})
	c := NewIdentityClient(srv.URL)

	_, err := c.Me(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "upstream unavailable", apiErr.Message)
	require.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestSessionNearExpiryWithinWindow(t *testing.T) {
	now := time.Now()
	sess := &Session{ExpiresAt: now.Add(90 * time.Second)}
	require.True(t, sess.NearExpiry(now))

	sess2 := &Session{ExpiresAt: now.Add(time.Hour)}
	require.False(t, sess2.NearExpiry(now))
}

func TestSessionNearExpiryNilSession(t *testing.T) {
	var sess *Session
	require.True(t, sess.NearExpiry(time.Now()))
}
