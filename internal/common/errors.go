// Package common defines shared constants and sentinel errors used across
// the portal's server components. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal = errors.New("internal error")

	// ErrNoDownloadableResources is returned when a group has nothing that
	// can be put into an archive (empty, or only video links).
	ErrNoDownloadableResources = errors.New("no downloadable resources found")
)
