// Copyright © 2026 Fogtools

package runner

import (
	"context"

	"github.com/fogtools/fogtest/pkg/model"
	"github.com/fogtools/fogtest/pkg/provider"
	"go.uber.org/zap"
)

// PlatformPlan describes what a run would use for one platform
type PlatformPlan struct {
	Platform model.Platform    `json:"platform" yaml:"platform"`
	Instance provider.Instance `json:"instance,omitempty" yaml:"instance,omitempty"`
	Snapshot provider.Snapshot `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`
	Error    string            `json:"error,omitempty" yaml:"error,omitempty"`
}

// Resolved indicates that both the instance and the snapshot were found
func (p PlatformPlan) Resolved() bool {
	return p.Error == ""
}

// Plan resolves every platform of the matrix against the provider without
// touching any instance. Resolution failures are reported per platform, so
// a dry run surfaces all misconfigured cells at once.
func (r *Runner) Plan(ctx context.Context, m model.Matrix) ([]PlatformPlan, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	plans := make([]PlatformPlan, 0, len(m.Platforms))
	for _, platform := range m.Platforms {
		plan := PlatformPlan{Platform: platform}
		inst, err := r.provider.FindInstance(ctx, m.InstanceName(platform))
		if err != nil {
			plan.Error = err.Error()
			plans = append(plans, plan)
			continue
		}
		plan.Instance = inst

		snap, err := r.provider.FindSnapshot(ctx, m.SnapshotName(platform))
		if err != nil {
			plan.Error = err.Error()
			plans = append(plans, plan)
			continue
		}
		plan.Snapshot = snap
		plans = append(plans, plan)

		r.l.Info("resolved platform",
			zap.String("platform", string(platform)),
			zap.String("instance", inst.ID),
			zap.String("snapshot", snap.ID))
	}
	return plans, nil
}
