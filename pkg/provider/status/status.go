// Copyright © 2026 Fogtools

// Package status declares error constants returned by
// implementations of the Provider interface.
//
// NOTE: such constants are located in a separate package to avoid
// creating undue cyclical dependencies between pkg/provider and one
// of its implementations.
package status

import "github.com/fogtools/fogtest/pkg/errors"

var (
	// Sentinel errors returned by implementations of the interface defined by provider

	// ErrInstanceNotFound indicates that no instance carries the wanted Name tag
	ErrInstanceNotFound = errors.New("instance not found")

	// ErrSnapshotNotFound indicates that no completed snapshot carries the wanted Name tag
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrAmbiguousName indicates that several live instances carry the same Name tag
	ErrAmbiguousName = errors.New("name matches more than one instance")

	// ErrUnauthorized indicates that the credentials do not allow this API call
	ErrUnauthorized = errors.New("unauthorized")

	// ErrThrottled indicates that the provider API rate-limited the call
	ErrThrottled = errors.New("throttled by provider API")

	// ErrBadState indicates that the resource is in a state that does not allow the operation
	ErrBadState = errors.New("resource in unexpected state")

	// ErrWaitTimeout indicates that a resource did not reach the wanted state in time
	ErrWaitTimeout = errors.New("timed out waiting for resource state")

	// ErrProviderAPI indicates any other provider API error
	ErrProviderAPI = errors.New("provider API error")
)
