package model

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedMessage is returned when a message's headers cannot be read.
	ErrMalformedMessage = errors.New("malformed message: headers unreadable")

	// ErrScanInProgress is returned when a scan is requested while one runs.
	ErrScanInProgress = errors.New("scan already in progress")
)

// AuthError indicates that no usable credential could be obtained.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("auth: %v", e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

// ListFetchError indicates the candidate message list could not be fetched.
type ListFetchError struct {
	Query string
	Err   error
}

func (e *ListFetchError) Error() string {
	return fmt.Sprintf("list messages %q: %v", e.Query, e.Err)
}
func (e *ListFetchError) Unwrap() error { return e.Err }

// DetailFetchError indicates a single message could not be fetched.
type DetailFetchError struct {
	ID  string
	Err error
}

func (e *DetailFetchError) Error() string {
	return fmt.Sprintf("get message %s: %v", e.ID, e.Err)
}
func (e *DetailFetchError) Unwrap() error { return e.Err }

// DecodeError indicates a malformed body encoding.
type DecodeError struct {
	MimeType string
	Err      error
}

func (e *DecodeError) Error() string {
	if e.MimeType == "" {
		return fmt.Sprintf("decode body: %v", e.Err)
	}
	return fmt.Sprintf("decode %s body: %v", e.MimeType, e.Err)
}
func (e *DecodeError) Unwrap() error { return e.Err }

// PersistenceError indicates the consolidated set could not be written.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("persist subscriptions: %v", e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}
