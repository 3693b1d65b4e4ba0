package domain

import "time"

// SessionState is the coarse state the UI routes on.
type SessionState int

const (
	Anonymous SessionState = iota
	Authenticating
	Authenticated
	Expired
)

func (s SessionState) String() string {
	switch s {
	case Anonymous:
		return "Anonymous"
	case Authenticating:
		return "Authenticating"
	case Authenticated:
		return "Authenticated"
	case Expired:
		return "Expired"
	default:
		return "Unknown"
	}
}

// Identity is who the access token was issued to.
type Identity struct {
	UserID   int64
	Username string
}

// Session is a transient value derived from the stored credential.
// It is never stored independently.
type Session struct {
	State    SessionState
	Identity Identity
}

// SessionOf recomputes the session from the current credential. It is called
// on every read so the result can never be stale. A pair whose access token
// is past its expiry is Expired rather than Anonymous: the refresh token may
// still rescue it, and the UI distinguishes the two when redirecting.
func SessionOf(c Credential, present bool, now time.Time) Session {
	if !present {
		return Session{State: Anonymous}
	}
	claims, err := c.DecodeClaims()
	if err != nil {
		// An undecodable pair is unusable; treat it as absent.
		return Session{State: Anonymous}
	}
	identity := Identity{UserID: claims.UserID, Username: claims.Username}
	if claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time) {
		return Session{State: Expired, Identity: identity}
	}
	return Session{State: Authenticated, Identity: identity}
}
