package errors

import "fmt"

var (
	// ErrUnauthenticated means no credential pair is present at all.
	ErrUnauthenticated = fmt.Errorf("no credential present")

	// ErrSessionExpired means renewal was rejected or failed; the stored pair
	// has been cleared and the user must authenticate again.
	ErrSessionExpired = fmt.Errorf("session expired")

	// ErrRejectedCredentials is a login attempt the platform denied.
	ErrRejectedCredentials = fmt.Errorf("credentials rejected")

	// ErrConnectivity is a transport/network failure, potentially transient.
	ErrConnectivity = fmt.Errorf("connectivity failure")

	// ErrChannelNotReady is a send attempted while the channel is not Open.
	ErrChannelNotReady = fmt.Errorf("channel not ready")

	ErrChannelClosed  = fmt.Errorf("channel closed")
	ErrMalformedToken = fmt.Errorf("malformed access token")
	ErrInvalidImage   = fmt.Errorf("capture is not an image")

	// ErrStaleWrite is a conditional store write that lost to an interleaved
	// mutation, typically a renewal result arriving after logout.
	ErrStaleWrite = fmt.Errorf("store changed since read")
)
