// Package common defines sentinel errors shared across the marketplace
// server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic flow control).
	ErrorInternal   = errors.New("internal error")
	ErrorValidation = errors.New("validation error")

	// Auth / token lifecycle errors. The session guard distinguishes all
	// four even though the HTTP layer maps them to the same status class.
	ErrMissingToken = errors.New("token is missing")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
	ErrUserNotFound = errors.New("user not found")

	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNameTaken      = errors.New("username already taken")
	ErrInvalidSignature   = errors.New("invalid signature")

	// Asset lifecycle errors.
	ErrAssetNotFound   = errors.New("asset not found")
	ErrExpiryMissing   = errors.New("asset expiry date is missing")
	ErrExpiryInvalid   = errors.New("invalid expiry date format")
	ErrAssetExpired    = errors.New("asset has expired")
	ErrNoAssetsForSale = errors.New("no assets for sale")

	// Upstream collaborator errors.
	ErrUploadFailed = errors.New("failed to upload to IPFS")
)
