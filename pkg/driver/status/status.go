// Package status declares error constants returned by
// implementations of the Driver interface.
package status

import "github.com/fogtools/fogtest/pkg/errors"

var (
	// ErrSpawn indicates that the test driver process could not be run to completion
	ErrSpawn = errors.New("test driver could not be run")

	// ErrTimedOut indicates that the test driver exceeded its allotted time and was killed
	ErrTimedOut = errors.New("test driver timed out")
)
