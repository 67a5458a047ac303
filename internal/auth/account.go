package auth

import "time"

// Account is the stored authorization subject. PasswordHash and RenewalHash
// never cross the HTTP boundary; handlers build explicit response DTOs.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	// RenewalHash is the sha256 hex digest of the account's single current
	// renewal credential; empty when no renewal credential is registered.
	RenewalHash string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ListFilter narrows and pages account listings.
type ListFilter struct {
	Role   *Role
	Active *bool
	Offset int
	Limit  int
}

// ProfileUpdate carries the mutable profile fields; nil means unchanged.
type ProfileUpdate struct {
	Name  *string
	Email *string
}
