package model

import (
	"fmt"
	"strings"

	"github.com/fogtools/fogtest/pkg/errors"
)

// Default naming conventions binding a platform to its test bed resources.
const (
	DefaultInstancePrefix = "fogtesting-"
	DefaultSnapshotSuffix = "-clean"
)

// ErrInvalidName indicates a branch or platform identifier that cannot be
// used to derive resource names
var ErrInvalidName = errors.New("invalid matrix identifier")

// Branch names a line of development under test
type Branch string

// Platform names a target operating system configuration, e.g. "linux"
type Platform string

// Matrix is a full test plan: every branch crossed with every platform,
// plus the naming conventions used to locate each platform's instance and
// clean snapshot.
//
// Branches run in listed order, one at a time. Platforms within a branch
// run concurrently, each against its own dedicated instance.
type Matrix struct {
	Branches  []Branch   `json:"branches" yaml:"branches"`
	Platforms []Platform `json:"platforms" yaml:"platforms"`

	// InstancePrefix and SnapshotSuffix override the fogtesting naming
	// defaults when set.
	InstancePrefix string `json:"instance_prefix,omitempty" yaml:"instance_prefix,omitempty"`
	SnapshotSuffix string `json:"snapshot_suffix,omitempty" yaml:"snapshot_suffix,omitempty"`
}

// InstanceName derives the name of the dedicated test instance for a platform
func (m Matrix) InstanceName(p Platform) string {
	prefix := m.InstancePrefix
	if prefix == "" {
		prefix = DefaultInstancePrefix
	}
	return prefix + string(p)
}

// SnapshotName derives the name of the clean snapshot for a platform
func (m Matrix) SnapshotName(p Platform) string {
	suffix := m.SnapshotSuffix
	if suffix == "" {
		suffix = DefaultSnapshotSuffix
	}
	return string(p) + suffix
}

// Cells returns the number of (branch, platform) pairs in the plan
func (m Matrix) Cells() int {
	return len(m.Branches) * len(m.Platforms)
}

// Validate checks that every identifier in the matrix is usable both as a
// process argument and inside a provider name filter, and that no platform
// appears twice: a duplicate platform would make two concurrent tasks fight
// over the same instance.
func (m Matrix) Validate() error {
	seenBranch := make(map[Branch]struct{}, len(m.Branches))
	for _, b := range m.Branches {
		if err := validIdent(string(b), branchIdentChars); err != nil {
			return ErrInvalidName.Wrap(fmt.Errorf("branch %q: %v", b, err))
		}
		if _, dup := seenBranch[b]; dup {
			return ErrInvalidName.Wrap(fmt.Errorf("branch %q listed twice", b))
		}
		seenBranch[b] = struct{}{}
	}
	seenPlatform := make(map[Platform]struct{}, len(m.Platforms))
	for _, p := range m.Platforms {
		if err := validIdent(string(p), platformIdentChars); err != nil {
			return ErrInvalidName.Wrap(fmt.Errorf("platform %q: %v", p, err))
		}
		if _, dup := seenPlatform[p]; dup {
			return ErrInvalidName.Wrap(fmt.Errorf("platform %q listed twice", p))
		}
		seenPlatform[p] = struct{}{}
	}
	return nil
}

const (
	// branches may carry path-like names such as release/1.0
	branchIdentChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789._/-"
	// platforms additionally exclude '/', which would nest artifact keys
	platformIdentChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789._-"
)

// validIdent rejects identifiers that would alter the semantics of a
// provider tag filter ('*' and '?' are wildcards there) or of an exec argv.
func validIdent(s, allowed string) error {
	if s == "" {
		return fmt.Errorf("empty identifier")
	}
	if idx := strings.IndexFunc(s, func(r rune) bool {
		return !strings.ContainsRune(allowed, r)
	}); idx >= 0 {
		return fmt.Errorf("character %q not allowed", s[idx])
	}
	return nil
}
