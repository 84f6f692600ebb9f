package federation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhub/quillhub/internal/domain/model"
	"github.com/quillhub/quillhub/internal/domain/port/driven"
)

func testPeer(baseURL string) model.Supergroup {
	return model.Supergroup{ID: 1, Name: "Peer Hub", Tag: "peerhub", BaseURL: baseURL, Token: "secret-token"}
}

func TestFetchUser_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/federation/users/abc-123", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","user":{"ref":"abc-123","handle":"carol","displayName":"Carol","bio":"writes about birds"}}`))
	}))
	defer srv.Close()

	client := NewClientWithHTTPClient(srv.Client())
	user, err := client.FetchUser(context.Background(), testPeer(srv.URL), "abc-123")
	require.NoError(t, err)
	assert.Equal(t, "abc-123", user.Ref)
	assert.Equal(t, "carol", user.Handle)
	assert.Equal(t, "Carol", user.DisplayName)
}

func TestFetchUser_ErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":"error","message":"Not Found"}`))
	}))
	defer srv.Close()

	client := NewClientWithHTTPClient(srv.Client())
	_, err := client.FetchUser(context.Background(), testPeer(srv.URL), "nobody")

	var peerErr *driven.PeerError
	require.ErrorAs(t, err, &peerErr)
	assert.Equal(t, driven.PeerErrorService, peerErr.Kind)
	assert.Equal(t, "Not Found", peerErr.Message)
}

func TestFetchUser_NonJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>upstream error</html>"))
	}))
	defer srv.Close()

	client := NewClientWithHTTPClient(srv.Client())
	_, err := client.FetchUser(context.Background(), testPeer(srv.URL), "abc")

	// The request itself succeeded, so the broken envelope is on the peer.
	var peerErr *driven.PeerError
	require.ErrorAs(t, err, &peerErr)
	assert.Equal(t, driven.PeerErrorService, peerErr.Kind)
}

func TestFetchUser_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // Shut down immediately so the dial fails.

	client := NewClientWithHTTPClient(http.DefaultClient)
	_, err := client.FetchUser(context.Background(), testPeer(srv.URL), "abc")

	var peerErr *driven.PeerError
	require.ErrorAs(t, err, &peerErr)
	assert.Equal(t, driven.PeerErrorFetch, peerErr.Kind)
	assert.Error(t, errors.Unwrap(peerErr))
}

func TestFetchUser_UnrecognizedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"partial"}`))
	}))
	defer srv.Close()

	client := NewClientWithHTTPClient(srv.Client())
	_, err := client.FetchUser(context.Background(), testPeer(srv.URL), "abc")

	var peerErr *driven.PeerError
	require.ErrorAs(t, err, &peerErr)
	assert.Equal(t, driven.PeerErrorService, peerErr.Kind)
}

func TestFetchUser_OKWithoutUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	client := NewClientWithHTTPClient(srv.Client())
	_, err := client.FetchUser(context.Background(), testPeer(srv.URL), "abc")

	var peerErr *driven.PeerError
	require.ErrorAs(t, err, &peerErr)
	assert.Equal(t, driven.PeerErrorService, peerErr.Kind)
}
