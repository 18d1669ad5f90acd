// Copyright © 2026 Fogtools

// Package provider abstracts the cloud holding the test bed.
//
// A test bed is a set of long-lived instances, one per platform, plus one
// clean snapshot per platform. Implementations resolve both by their Name
// tag and know how to put an instance back into its clean state.
package provider

import (
	"context"
	"time"
)

// Instance is a handle on one provisioned machine of the test bed
type Instance struct {
	ID         string    `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	State      string    `json:"state" yaml:"state"`
	Type       string    `json:"type,omitempty" yaml:"type,omitempty"`
	Zone       string    `json:"zone,omitempty" yaml:"zone,omitempty"`
	RootDevice string    `json:"root_device,omitempty" yaml:"root_device,omitempty"`
	VolumeID   string    `json:"volume_id,omitempty" yaml:"volume_id,omitempty"`
	LaunchedAt time.Time `json:"launched_at,omitempty" yaml:"launched_at,omitempty"`
}

// Snapshot is a handle on one stored clean-state image
type Snapshot struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	State     string    `json:"state" yaml:"state"`
	SizeGiB   int64     `json:"size_gib,omitempty" yaml:"size_gib,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty" yaml:"started_at,omitempty"`
}

// Provider implementations resolve test bed resources by name and restore
// instances to a clean state.
//
// Lookups match on the Name tag. Restore blocks until the instance runs
// again with its disk state reset to the snapshot, or fails with one of the
// status package sentinels.
type Provider interface {
	String() string
	FindInstance(ctx context.Context, name string) (Instance, error)
	FindSnapshot(ctx context.Context, name string) (Snapshot, error)
	Restore(ctx context.Context, snap Snapshot, inst Instance) error
	ListInstances(ctx context.Context, namePrefix string) ([]Instance, error)
	ListSnapshots(ctx context.Context, nameSuffix string) ([]Snapshot, error)
}
