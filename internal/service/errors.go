package service

import (
	"context"
	"errors"
)

// ErrUserNotFound indicates the subject does not exist.
var ErrUserNotFound = errors.New("user not found")

// ErrActivityNotFound indicates the activity was not located.
var ErrActivityNotFound = errors.New("activity not found")

// ErrTrophyNotFound indicates the trophy was not located.
var ErrTrophyNotFound = errors.New("trophy not found")

// ErrNotificationNotFound indicates the notification was not located.
var ErrNotificationNotFound = errors.New("notification not found")

// ErrExportNotFound indicates the export job was not located.
var ErrExportNotFound = errors.New("export job not found")

// ErrExportNotReady indicates the export job has not completed yet.
var ErrExportNotReady = errors.New("export job not completed")

// ErrNotInRecord indicates the named subject is not a member of the
// activity or trophy.
var ErrNotInRecord = errors.New("user not in record")

// ErrPermissionDenied indicates a role or ownership check failed.
var ErrPermissionDenied = errors.New("permission denied")

// ErrInvalidTransition indicates a terminal-state violation, an unknown
// source/target pair, or a stale record snapshot losing a concurrent write.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrDataIntegrity indicates stored records are malformed (negative duration,
// unrecognized category, dangling prize tier). The computation aborts; the
// data is never repaired silently.
var ErrDataIntegrity = errors.New("data integrity violation")

// ErrStoreUnavailable indicates a transient store failure; aggregation is
// pure and safe to retry.
var ErrStoreUnavailable = errors.New("record store unavailable")

// ErrInvalidCredentials indicates a failed login.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrRegistrationClosed indicates the actor's class cannot sign up for the
// activity.
var ErrRegistrationClosed = errors.New("registration not open to class")

// ErrActivityFull indicates the class quota for the activity is exhausted.
var ErrActivityFull = errors.New("activity is full")

// ErrAlreadyMember indicates the user already holds a record in the activity
// or trophy.
var ErrAlreadyMember = errors.New("user already in record")

// ErrUnknownAward indicates a trophy member references a prize tier the
// trophy does not declare.
var ErrUnknownAward = errors.New("unknown prize tier")

// storeErr folds store timeouts into the retryable taxonomy; everything else
// passes through untouched.
func storeErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrStoreUnavailable
	}
	return err
}
