package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/repertoire/internal/shared"
)

// User is the local profile of someone authenticated by the upstream auth proxy.
type User struct {
	record
	email       string
	displayName string
}

// NewUser creates a user profile. The email is normalized for lookups.
func NewUser(sequence int, email, displayName string) *User {
	return &User{record: newRecord(sequence), email: shared.NormalizeEmail(email), displayName: displayName}
}

func (u *User) Email() string { return u.email }

// DisplayName falls back to "Musician" like the dashboard header does.
func (u *User) DisplayName() string {
	if u.displayName == "" {
		return "Musician"
	}
	return u.displayName
}

func (u *User) SetDisplayName(name string) { u.displayName = name }

// Validate checks that the user has an ID and a plausible email.
func (u *User) Validate() error {
	if u.id == "" {
		return fmt.Errorf("%w: user id is required", shared.ErrInvalidInput)
	}
	if u.email == "" || !strings.Contains(u.email, "@") {
		return fmt.Errorf("%w: user email %q is invalid", shared.ErrInvalidInput, u.email)
	}
	return nil
}
