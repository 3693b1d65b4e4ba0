package domain

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"campuslink/errors"
)

func signedToken(t *testing.T, username string, userID int64, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"username": username,
		"user_id":  userID,
		"exp":      exp.Unix(),
		"iat":      time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestCredential_DecodeClaims(t *testing.T) {
	req := require.New(t)
	exp := time.Now().Add(10 * time.Minute)
	cred := Credential{
		Access:  signedToken(t, "alice", 7, exp),
		Refresh: "refresh-opaque",
	}

	claims, err := cred.DecodeClaims()
	req.NoError(err)
	req.Equal("alice", claims.Username)
	req.Equal(int64(7), claims.UserID)

	got, err := cred.ExpiresAt()
	req.NoError(err)
	req.WithinDuration(exp, got, time.Second)
}

func TestCredential_DecodeClaims_Malformed(t *testing.T) {
	req := require.New(t)
	cred := Credential{Access: "not-a-jwt", Refresh: "r"}

	_, err := cred.DecodeClaims()
	req.ErrorIs(err, errors.ErrMalformedToken)

	_, err = cred.ExpiresAt()
	req.ErrorIs(err, errors.ErrMalformedToken)
	req.False(cred.Fresh(time.Now(), 0))
}

func TestCredential_Fresh(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		exp  time.Time
		skew time.Duration
		want bool
	}{
		{"plenty of time left", now.Add(10 * time.Minute), 30 * time.Second, true},
		{"expiry inside the skew margin", now.Add(2 * time.Second), 5 * time.Second, false},
		{"already expired", now.Add(-time.Minute), 30 * time.Second, false},
		{"no skew, one minute left", now.Add(time.Minute), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cred := Credential{Access: signedToken(t, "bob", 1, tt.exp), Refresh: "r"}
			require.Equal(t, tt.want, cred.Fresh(now, tt.skew))
		})
	}
}

func TestSessionOf(t *testing.T) {
	now := time.Now()

	t.Run("absent pair is anonymous", func(t *testing.T) {
		s := SessionOf(Credential{}, false, now)
		require.Equal(t, Anonymous, s.State)
	})

	t.Run("valid pair is authenticated with identity", func(t *testing.T) {
		req := require.New(t)
		cred := Credential{Access: signedToken(t, "alice", 7, now.Add(time.Hour)), Refresh: "r"}
		s := SessionOf(cred, true, now)
		req.Equal(Authenticated, s.State)
		req.Equal("alice", s.Identity.Username)
		req.Equal(int64(7), s.Identity.UserID)
	})

	t.Run("past expiry is expired, not anonymous", func(t *testing.T) {
		cred := Credential{Access: signedToken(t, "alice", 7, now.Add(-time.Minute)), Refresh: "r"}
		s := SessionOf(cred, true, now)
		require.Equal(t, Expired, s.State)
	})

	t.Run("undecodable pair reads as anonymous", func(t *testing.T) {
		s := SessionOf(Credential{Access: "garbage", Refresh: "r"}, true, now)
		require.Equal(t, Anonymous, s.State)
	})
}
