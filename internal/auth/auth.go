// Package auth gates ledger mutations on the caller's identity, role, or
// password proof.
//
// Passwords are stored trimmed and lower-cased and compared in plain form
// with no hashing. That behavior is carried over verbatim from the legacy
// system this service replaced and is a known weakness, not a design goal.
package auth

import (
	"strings"

	"github.com/opentix/ledger/internal/domain"
)

// NormalizePassword applies the storage normalization: trim then lower-case.
func NormalizePassword(password string) string {
	return strings.ToLower(strings.TrimSpace(password))
}

// VerifyPassword compares a claimed password against the stored one. The
// claim is compared exactly as supplied; only the stored side is normalized
// (at account creation time).
func VerifyPassword(account domain.Account, claim string) error {
	if account.Password != claim {
		return domain.ErrPasswordMismatch
	}
	return nil
}

// RequireOrganizer rejects accounts that do not hold the organizer role.
func RequireOrganizer(account domain.Account) error {
	if account.Role != domain.RoleOrganizer {
		return domain.ErrNotOrganizer
	}
	return nil
}

// RequireEventOwner rejects callers that did not create the event.
func RequireEventOwner(callerID string, event domain.Event) error {
	if event.OrganizerID != callerID {
		return domain.ErrNotEventOwner
	}
	return nil
}
