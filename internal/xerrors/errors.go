// Package xerrors defines the typed error taxonomy shared across comfygit's
// core components, modeled on compozy's engine/core.Error: a single struct
// carrying a stable Kind, a human message, and structured Details, wrapping
// the underlying cause for errors.Is/errors.As.
package xerrors

import (
	"errors"
	"fmt"
)

// Kind identifies which part of the taxonomy an Error belongs to. Callers
// should branch on Kind, never on Message text.
type Kind string

const (
	KindManifestInvalid     Kind = "manifest_invalid"
	KindManifestNotFound    Kind = "manifest_not_found"
	KindManifestWriteFailed Kind = "manifest_write_failed"

	KindEnvironmentNotFound Kind = "environment_not_found"
	KindEnvironmentExists   Kind = "environment_exists"
	KindEnvironmentCorrupt  Kind = "environment_corrupt"
	KindEnvironmentLocked   Kind = "environment_locked"

	KindWorkspaceInvalid Kind = "workspace_invalid"

	KindNodeNotFound Kind = "node_not_found"
	KindNodeConflict Kind = "node_conflict"

	KindModelNotFound Kind = "model_not_found"

	KindRegistryUnavailable Kind = "registry_unavailable"
	KindRegistryNotFound    Kind = "registry_not_found"

	KindUVCommandError  Kind = "uv_command_error"
	KindGitCommandError Kind = "git_command_error"

	KindResolutionFailed Kind = "resolution_failed"
	KindDownloadFailed   Kind = "download_failed"
)

// Error is the single error type returned across package boundaries in the
// core. Details carries kind-specific structured context: for
// KindNodeConflict it holds candidate remediation actions; for
// KindUVCommandError it holds parsed conflict lines; for KindDownloadFailed
// it holds the URL (or, from the node registry, the node name).
type Error struct {
	Kind    Kind           `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	cause   error
}

// New builds an Error of the given kind wrapping cause, with a message
// derived from cause (or a fallback when cause is nil).
func New(kind Kind, cause error, details map[string]any) *Error {
	message := "unknown error"
	if cause != nil {
		message = cause.Error()
	}
	return &Error{Kind: kind, Message: message, Details: details, cause: cause}
}

// Newf builds an Error of the given kind with a formatted message and no
// wrapped cause.
func Newf(kind Kind, details map[string]any, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Details: details}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Kind == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is reports whether target is an *Error with the same Kind, so callers can
// use errors.Is(err, &xerrors.Error{Kind: xerrors.KindNodeNotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil {
		return false
	}
	return e.Kind == t.Kind
}

// WithDetail returns a copy of e with key/value merged into Details.
func (e *Error) WithDetail(key string, value any) *Error {
	out := *e
	out.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		out.Details[k] = v
	}
	out.Details[key] = value
	return &out
}

// Is reports whether err (or anything it wraps) is an Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
