package auth

import "errors"

var (
	// ErrInvalidInput covers malformed registration or update payloads.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyExists is returned when an email is already registered.
	ErrAlreadyExists = errors.New("email already registered")

	// ErrNotFound is returned when an account does not exist.
	ErrNotFound = errors.New("account not found")

	// ErrInvalidCredentials is the single answer to every failed login:
	// unknown email, wrong password, inactive account, wrong role hint.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrMissingCredential means no bearer credential was presented.
	ErrMissingCredential = errors.New("missing credential")

	// ErrInvalidCredential means the presented credential does not parse
	// or its signature or claims are wrong.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrExpiredCredential means the credential was valid once but is
	// past its expiry.
	ErrExpiredCredential = errors.New("expired credential")

	// ErrRevokedCredential means the credential was explicitly revoked.
	ErrRevokedCredential = errors.New("revoked credential")

	// ErrRevocationUnavailable means the revocation store could not be
	// reached. Verification fails closed.
	ErrRevocationUnavailable = errors.New("revocation store unavailable")

	// ErrInvalidRenewal covers every unusable renewal credential: bad
	// signature, expired, superseded, account gone or inactive.
	ErrInvalidRenewal = errors.New("invalid renewal credential")

	// ErrUnauthenticated means no identity is attached to the request.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means the identity lacks the required permission.
	ErrForbidden = errors.New("forbidden")

	// ErrLastAdmin guards the final active administrator from demotion,
	// deactivation or deletion.
	ErrLastAdmin = errors.New("cannot remove the last active admin")
)
