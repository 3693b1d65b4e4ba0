package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"campuslink/domain"
	"campuslink/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// pngHeader is enough magic for content sniffing to call it an image.
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

func TestClient_IssueToken(t *testing.T) {
	t.Run("returns the pair on success", func(t *testing.T) {
		req := require.New(t)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req.Equal(http.MethodPost, r.Method)
			req.Equal("/api/token/", r.URL.Path)

			var body map[string]string
			req.NoError(json.NewDecoder(r.Body).Decode(&body))
			req.Equal("alice", body["username"])
			req.Equal("s3cret", body["password"])

			_ = json.NewEncoder(w).Encode(domain.Credential{Access: "a", Refresh: "r"})
		}))
		defer srv.Close()

		client := NewClient(srv.URL+"/api", time.Second, testLogger())
		cred, err := client.IssueToken(context.Background(), "alice", "s3cret")
		req.NoError(err)
		req.Equal(domain.Credential{Access: "a", Refresh: "r"}, cred)
	})

	t.Run("401 means rejected credentials", func(t *testing.T) {
		req := require.New(t)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		client := NewClient(srv.URL+"/api", time.Second, testLogger())
		_, err := client.IssueToken(context.Background(), "alice", "wrong")
		req.ErrorIs(err, errors.ErrRejectedCredentials)
	})

	t.Run("blank submissions never reach the network", func(t *testing.T) {
		req := require.New(t)
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
		}))
		defer srv.Close()

		client := NewClient(srv.URL+"/api", time.Second, testLogger())
		_, err := client.IssueToken(context.Background(), "", "")
		req.ErrorIs(err, errors.ErrRejectedCredentials)
		req.Zero(hits.Load())
	})

	t.Run("unreachable host is a connectivity failure", func(t *testing.T) {
		req := require.New(t)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		client := NewClient(srv.URL+"/api", time.Second, testLogger())
		_, err := client.IssueToken(context.Background(), "alice", "s3cret")
		req.ErrorIs(err, errors.ErrConnectivity)
	})

	t.Run("incomplete pair is a connectivity failure", func(t *testing.T) {
		req := require.New(t)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"access":"only-half"}`))
		}))
		defer srv.Close()

		client := NewClient(srv.URL+"/api", time.Second, testLogger())
		_, err := client.IssueToken(context.Background(), "alice", "s3cret")
		req.ErrorIs(err, errors.ErrConnectivity)
	})
}

func TestClient_RefreshToken(t *testing.T) {
	t.Run("posts the refresh token", func(t *testing.T) {
		req := require.New(t)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req.Equal("/api/token/refresh/", r.URL.Path)

			var body map[string]string
			req.NoError(json.NewDecoder(r.Body).Decode(&body))
			req.Equal("old-refresh", body["refresh"])

			_ = json.NewEncoder(w).Encode(domain.Credential{Access: "new-a", Refresh: "new-r"})
		}))
		defer srv.Close()

		client := NewClient(srv.URL+"/api", time.Second, testLogger())
		cred, err := client.RefreshToken(context.Background(), "old-refresh")
		req.NoError(err)
		req.Equal("new-a", cred.Access)
	})

	t.Run("rejected refresh token", func(t *testing.T) {
		req := require.New(t)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		client := NewClient(srv.URL+"/api", time.Second, testLogger())
		_, err := client.RefreshToken(context.Background(), "stale")
		req.ErrorIs(err, errors.ErrRejectedCredentials)
	})
}

func TestClient_FaceLogin(t *testing.T) {
	t.Run("ships the capture as base64", func(t *testing.T) {
		req := require.New(t)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req.Equal("/api/face-login/", r.URL.Path)

			var body map[string]string
			req.NoError(json.NewDecoder(r.Body).Decode(&body))
			req.NotEmpty(body["image"])

			_ = json.NewEncoder(w).Encode(domain.Credential{Access: "a", Refresh: "r"})
		}))
		defer srv.Close()

		client := NewClient(srv.URL+"/api", time.Second, testLogger())
		_, err := client.FaceLogin(context.Background(), pngHeader)
		req.NoError(err)
	})

	t.Run("refuses non-image payloads before upload", func(t *testing.T) {
		req := require.New(t)
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
		}))
		defer srv.Close()

		client := NewClient(srv.URL+"/api", time.Second, testLogger())
		_, err := client.FaceLogin(context.Background(), []byte("just some text"))
		req.ErrorIs(err, errors.ErrInvalidImage)
		req.Zero(hits.Load())
	})
}
