//go:generate go run go.uber.org/mock/mockgen -source=client.go -destination=../mocks/mock_token_api.go -package=mocks
package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"

	"campuslink/domain"
	"campuslink/errors"
)

var validate = validator.New()

// TokenAPI is the credential-issuing surface of the platform.
// All three endpoints return the same pair shape or 401.
type TokenAPI interface {
	IssueToken(ctx context.Context, username, password string) (domain.Credential, error)
	RefreshToken(ctx context.Context, refreshToken string) (domain.Credential, error)
	FaceLogin(ctx context.Context, image []byte) (domain.Credential, error)
}

// Client talks to the platform REST API over plain HTTP+JSON.
type Client struct {
	base string
	http *http.Client
	log  *slog.Logger
}

// NewClient builds a client against base, e.g. "http://localhost:8000/api".
// Every call is bounded by timeout; an expired deadline is a connectivity
// failure, never an indefinite suspension.
func NewClient(base string, timeout time.Duration, log *slog.Logger) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
		log:  log,
	}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type faceLoginRequest struct {
	Image string `json:"image"`
}

func (c *Client) IssueToken(ctx context.Context, username, password string) (domain.Credential, error) {
	req := loginRequest{Username: username, Password: password}
	// Reject blank submissions before any network call.
	if err := validate.Struct(req); err != nil {
		return domain.Credential{}, fmt.Errorf("%w: %v", errors.ErrRejectedCredentials, err)
	}
	return c.postForCredential(ctx, "/token/", req)
}

func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (domain.Credential, error) {
	req := refreshRequest{Refresh: refreshToken}
	if err := validate.Struct(req); err != nil {
		return domain.Credential{}, fmt.Errorf("%w: %v", errors.ErrRejectedCredentials, err)
	}
	return c.postForCredential(ctx, "/token/refresh/", req)
}

// FaceLogin ships a captured image to the server-side matcher. The client
// performs no recognition itself; it only refuses payloads that are not
// images before paying for the upload.
func (c *Client) FaceLogin(ctx context.Context, image []byte) (domain.Credential, error) {
	if !strings.HasPrefix(mimetype.Detect(image).String(), "image/") {
		return domain.Credential{}, errors.ErrInvalidImage
	}
	req := faceLoginRequest{Image: base64.StdEncoding.EncodeToString(image)}
	return c.postForCredential(ctx, "/face-login/", req)
}

// postForCredential is the shared POST-and-decode path. A 401 means the
// platform denied the attempt; anything else that is not a complete pair is
// a connectivity failure.
func (c *Client) postForCredential(ctx context.Context, path string, payload any) (domain.Credential, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.Credential{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return domain.Credential{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("%w: %v", errors.ErrConnectivity, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		var cred domain.Credential
		if err := json.NewDecoder(resp.Body).Decode(&cred); err != nil {
			return domain.Credential{}, fmt.Errorf("%w: decoding credential: %v", errors.ErrConnectivity, err)
		}
		if cred.Access == "" || cred.Refresh == "" {
			return domain.Credential{}, fmt.Errorf("%w: incomplete credential pair", errors.ErrConnectivity)
		}
		return cred, nil
	case http.StatusUnauthorized:
		return domain.Credential{}, errors.ErrRejectedCredentials
	default:
		c.log.Warn("Unexpected status from token endpoint", "path", path, "status", resp.StatusCode)
		return domain.Credential{}, fmt.Errorf("%w: unexpected status %d", errors.ErrConnectivity, resp.StatusCode)
	}
}
