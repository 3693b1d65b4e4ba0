// Package domain contains core concepts of the client session layer.
// This file defines the credential pair issued by the platform.
// Credentials are immutable values; a pair is either fully present or absent.
package domain

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"campuslink/errors"
)

// Credential is the token pair returned by the credential-issuing endpoints.
// Expiry and identity are never stored separately: they are always derived
// from the access token claims, so they cannot go stale.
type Credential struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Claims is the decoded payload of an access token.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// IsZero reports whether the pair is absent.
func (c Credential) IsZero() bool {
	return c.Access == "" && c.Refresh == ""
}

// DecodeClaims parses the access token without verifying its signature.
// The client holds no signing key; it only needs the exp and identity claims.
func (c Credential) DecodeClaims() (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.Access, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrMalformedToken, err)
	}
	return claims, nil
}

// ExpiresAt returns the expiry decoded from the access token.
func (c Credential) ExpiresAt() (time.Time, error) {
	claims, err := c.DecodeClaims()
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("%w: missing exp claim", errors.ErrMalformedToken)
	}
	return claims.ExpiresAt.Time, nil
}

// Fresh reports whether the access token is still usable once the skew
// tolerance safety margin is subtracted from its expiry. A token that cannot
// be decoded is never fresh.
func (c Credential) Fresh(now time.Time, skew time.Duration) bool {
	exp, err := c.ExpiresAt()
	if err != nil {
		return false
	}
	return now.Before(exp.Add(-skew))
}
