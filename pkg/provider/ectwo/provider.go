// Copyright © 2026 Fogtools

// Package ectwo implements the provider interface on AWS EC2.
//
// Instances and snapshots are resolved by their Name tag. Restoring swaps
// the instance's root EBS volume for a fresh volume created from the clean
// snapshot.
package ectwo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/aws/aws-sdk-go/service/ec2/ec2iface"
	"github.com/fogtools/fogtest/pkg/logging"
	"github.com/fogtools/fogtest/pkg/provider"
	"github.com/fogtools/fogtest/pkg/provider/status"
	"go.uber.org/zap"
)

const (
	defaultWaitTimeout  = 15 * time.Minute
	defaultPollInterval = 5 * time.Second
)

// states an instance can be found in: anything but terminated or on its way there
var liveInstanceStates = []string{
	ec2.InstanceStateNamePending,
	ec2.InstanceStateNameRunning,
	ec2.InstanceStateNameStopping,
	ec2.InstanceStateNameStopped,
}

// Option for the EC2 provider
type Option func(*ec2Provider)

// Region sets the AWS region to address
func Region(region string) Option {
	return func(p *ec2Provider) {
		p.region = region
	}
}

// Profile selects a named profile from the AWS shared config
func Profile(profile string) Option {
	return func(p *ec2Provider) {
		p.profile = profile
	}
}

// AWSConfig sets a custom AWS client configuration
func AWSConfig(cfg *aws.Config) Option {
	return func(p *ec2Provider) {
		p.awsConfig = cfg
	}
}

// API injects a preconfigured EC2 client
func API(api ec2iface.EC2API) Option {
	return func(p *ec2Provider) {
		p.api = api
	}
}

// Logger sets a logger for this provider
func Logger(logger *zap.Logger) Option {
	return func(p *ec2Provider) {
		if logger != nil {
			p.l = logger
		}
	}
}

// WaitTimeout bounds the total duration of a restore
func WaitTimeout(d time.Duration) Option {
	return func(p *ec2Provider) {
		if d > 0 {
			p.waitTimeout = d
		}
	}
}

// PollInterval sets the delay between two state polls while waiting
func PollInterval(d time.Duration) Option {
	return func(p *ec2Provider) {
		if d > 0 {
			p.pollEvery = d
		}
	}
}

// KeepVolumes leaves replaced root volumes around instead of deleting them
func KeepVolumes(keep bool) Option {
	return func(p *ec2Provider) {
		p.keepVolumes = keep
	}
}

// VolumeType forces the EBS volume type of restored root volumes. The
// default is to reuse the type of the volume being replaced.
func VolumeType(volumeType string) Option {
	return func(p *ec2Provider) {
		p.volumeType = volumeType
	}
}

type ec2Provider struct {
	region      string
	profile     string
	awsConfig   *aws.Config
	api         ec2iface.EC2API
	l           *zap.Logger
	waitTimeout time.Duration
	pollEvery   time.Duration
	keepVolumes bool
	volumeType  string
}

func defaultEC2() *ec2Provider {
	return &ec2Provider{
		l:           logging.MustGetLogger(logging.LogLevelInfo),
		waitTimeout: defaultWaitTimeout,
		pollEvery:   defaultPollInterval,
	}
}

// New builds an EC2-backed provider
func New(options ...Option) provider.Provider {
	p := defaultEC2()
	for _, apply := range options {
		apply(p)
	}
	if p.api == nil {
		cfg := p.awsConfig
		if cfg == nil {
			cfg = aws.NewConfig()
		}
		if p.region != "" {
			cfg = cfg.WithRegion(p.region)
		}
		if p.profile != "" {
			// a named profile may carry its own region and credentials
			p.api = ec2.New(session.Must(session.NewSessionWithOptions(session.Options{
				Config:            *cfg,
				Profile:           p.profile,
				SharedConfigState: session.SharedConfigEnable,
			})))
		} else {
			p.api = ec2.New(session.Must(session.NewSession(cfg)))
		}
	}
	return p
}

func (p *ec2Provider) String() string {
	if p.region == "" {
		return "ec2"
	}
	return "ec2@" + p.region
}

func (p *ec2Provider) FindInstance(ctx context.Context, name string) (provider.Instance, error) {
	out, err := p.api.DescribeInstancesWithContext(ctx, &ec2.DescribeInstancesInput{
		Filters: []*ec2.Filter{
			filter("tag:Name", name),
			filter("instance-state-name", liveInstanceStates...),
		},
	})
	if err != nil {
		return provider.Instance{}, toSentinelErrors(err)
	}

	var found []*ec2.Instance
	for _, r := range out.Reservations {
		found = append(found, r.Instances...)
	}
	switch len(found) {
	case 0:
		return provider.Instance{}, status.ErrInstanceNotFound.Wrap(fmt.Errorf("no live instance named %q", name))
	case 1:
		return asInstance(found[0]), nil
	default:
		return provider.Instance{}, status.ErrAmbiguousName.Wrap(fmt.Errorf("%d live instances named %q", len(found), name))
	}
}

func (p *ec2Provider) FindSnapshot(ctx context.Context, name string) (provider.Snapshot, error) {
	out, err := p.api.DescribeSnapshotsWithContext(ctx, &ec2.DescribeSnapshotsInput{
		OwnerIds: []*string{aws.String("self")},
		Filters: []*ec2.Filter{
			filter("tag:Name", name),
			filter("status", ec2.SnapshotStateCompleted),
		},
	})
	if err != nil {
		return provider.Snapshot{}, toSentinelErrors(err)
	}
	if len(out.Snapshots) == 0 {
		return provider.Snapshot{}, status.ErrSnapshotNotFound.Wrap(fmt.Errorf("no completed snapshot named %q", name))
	}

	// the clean image may be rebuilt periodically: the most recent one wins
	best := out.Snapshots[0]
	for _, s := range out.Snapshots[1:] {
		if aws.TimeValue(s.StartTime).After(aws.TimeValue(best.StartTime)) {
			best = s
		}
	}
	return asSnapshot(best), nil
}

// Restore swaps the instance's root volume for a fresh volume created from
// the snapshot: stop, detach the old root volume, create and attach the new
// one, start again. The replaced volume is deleted unless KeepVolumes is set.
func (p *ec2Provider) Restore(ctx context.Context, snap provider.Snapshot, inst provider.Instance) error {
	if snap.ID == "" || inst.ID == "" {
		return status.ErrBadState.Wrap(fmt.Errorf("restore needs resolved handles, got snapshot %q on instance %q", snap.ID, inst.ID))
	}
	if inst.RootDevice == "" {
		return status.ErrBadState.Wrap(fmt.Errorf("instance %s exposes no root device to attach to", inst.ID))
	}
	if p.waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.waitTimeout)
		defer cancel()
	}
	l := p.l.With(zap.String("instance", inst.ID), zap.String("snapshot", snap.ID))

	l.Info("stopping instance")
	if _, err := p.api.StopInstancesWithContext(ctx, &ec2.StopInstancesInput{
		InstanceIds: []*string{aws.String(inst.ID)},
	}); err != nil {
		return toSentinelErrors(err)
	}
	if err := p.api.WaitUntilInstanceStoppedWithContext(ctx, describeInstance(inst.ID), p.waiterOpts()...); err != nil {
		return toWaitErrors(ctx, err)
	}

	volumeType := p.volumeType
	if inst.VolumeID != "" {
		if volumeType == "" {
			vols, err := p.api.DescribeVolumesWithContext(ctx, describeVolume(inst.VolumeID))
			if err != nil {
				return toSentinelErrors(err)
			}
			if len(vols.Volumes) == 1 {
				volumeType = aws.StringValue(vols.Volumes[0].VolumeType)
			}
		}

		l.Info("detaching root volume", zap.String("volume", inst.VolumeID))
		if _, err := p.api.DetachVolumeWithContext(ctx, &ec2.DetachVolumeInput{
			VolumeId: aws.String(inst.VolumeID),
		}); err != nil {
			return toSentinelErrors(err)
		}
		if err := p.api.WaitUntilVolumeAvailableWithContext(ctx, describeVolume(inst.VolumeID), p.waiterOpts()...); err != nil {
			return toWaitErrors(ctx, err)
		}
	}

	l.Info("creating volume from snapshot", zap.String("zone", inst.Zone))
	createInput := &ec2.CreateVolumeInput{
		AvailabilityZone: aws.String(inst.Zone),
		SnapshotId:       aws.String(snap.ID),
	}
	if volumeType != "" {
		createInput.VolumeType = aws.String(volumeType)
	}
	created, err := p.api.CreateVolumeWithContext(ctx, createInput)
	if err != nil {
		return toSentinelErrors(err)
	}
	newVolume := aws.StringValue(created.VolumeId)
	if err = p.api.WaitUntilVolumeAvailableWithContext(ctx, describeVolume(newVolume), p.waiterOpts()...); err != nil {
		return toWaitErrors(ctx, err)
	}

	l.Info("attaching volume", zap.String("volume", newVolume), zap.String("device", inst.RootDevice))
	if _, err = p.api.AttachVolumeWithContext(ctx, &ec2.AttachVolumeInput{
		Device:     aws.String(inst.RootDevice),
		InstanceId: aws.String(inst.ID),
		VolumeId:   aws.String(newVolume),
	}); err != nil {
		return toSentinelErrors(err)
	}
	if err = p.api.WaitUntilVolumeInUseWithContext(ctx, describeVolume(newVolume), p.waiterOpts()...); err != nil {
		return toWaitErrors(ctx, err)
	}

	l.Info("starting instance")
	if _, err = p.api.StartInstancesWithContext(ctx, &ec2.StartInstancesInput{
		InstanceIds: []*string{aws.String(inst.ID)},
	}); err != nil {
		return toSentinelErrors(err)
	}
	if err = p.api.WaitUntilInstanceRunningWithContext(ctx, describeInstance(inst.ID), p.waiterOpts()...); err != nil {
		return toWaitErrors(ctx, err)
	}

	if inst.VolumeID != "" && !p.keepVolumes {
		// the instance runs on the new volume at this point: failing to clean
		// up the old one does not fail the restore
		if _, err = p.api.DeleteVolumeWithContext(ctx, &ec2.DeleteVolumeInput{
			VolumeId: aws.String(inst.VolumeID),
		}); err != nil {
			l.Warn("could not delete replaced root volume", zap.String("volume", inst.VolumeID), zap.Error(err))
		}
	}

	l.Info("instance restored")
	return nil
}

func (p *ec2Provider) ListInstances(ctx context.Context, namePrefix string) ([]provider.Instance, error) {
	var instances []provider.Instance
	eachPage := func(page *ec2.DescribeInstancesOutput, _ bool) bool {
		for _, r := range page.Reservations {
			for _, i := range r.Instances {
				instances = append(instances, asInstance(i))
			}
		}
		return true
	}
	params := &ec2.DescribeInstancesInput{
		Filters: []*ec2.Filter{
			filter("tag:Name", namePrefix+"*"),
			filter("instance-state-name", liveInstanceStates...),
		},
	}

	if err := p.api.DescribeInstancesPagesWithContext(ctx, params, eachPage); err != nil {
		return nil, toSentinelErrors(err)
	}
	sort.Slice(instances, func(i, j int) bool {
		return instances[i].Name < instances[j].Name
	})
	return instances, nil
}

func (p *ec2Provider) ListSnapshots(ctx context.Context, nameSuffix string) ([]provider.Snapshot, error) {
	var snapshots []provider.Snapshot
	eachPage := func(page *ec2.DescribeSnapshotsOutput, _ bool) bool {
		for _, s := range page.Snapshots {
			snapshots = append(snapshots, asSnapshot(s))
		}
		return true
	}
	params := &ec2.DescribeSnapshotsInput{
		OwnerIds: []*string{aws.String("self")},
		Filters: []*ec2.Filter{
			filter("tag:Name", "*"+nameSuffix),
			filter("status", ec2.SnapshotStateCompleted),
		},
	}

	if err := p.api.DescribeSnapshotsPagesWithContext(ctx, params, eachPage); err != nil {
		return nil, toSentinelErrors(err)
	}
	sort.Slice(snapshots, func(i, j int) bool {
		if snapshots[i].Name != snapshots[j].Name {
			return snapshots[i].Name < snapshots[j].Name
		}
		return snapshots[i].StartedAt.After(snapshots[j].StartedAt)
	})
	return snapshots, nil
}

func (p *ec2Provider) waiterOpts() []request.WaiterOption {
	attempts := int(p.waitTimeout/p.pollEvery) + 1
	return []request.WaiterOption{
		request.WithWaiterDelay(request.ConstantWaiterDelay(p.pollEvery)),
		request.WithWaiterMaxAttempts(attempts),
	}
}

func filter(name string, values ...string) *ec2.Filter {
	return &ec2.Filter{Name: aws.String(name), Values: aws.StringSlice(values)}
}

func describeInstance(id string) *ec2.DescribeInstancesInput {
	return &ec2.DescribeInstancesInput{InstanceIds: []*string{aws.String(id)}}
}

func describeVolume(id string) *ec2.DescribeVolumesInput {
	return &ec2.DescribeVolumesInput{VolumeIds: []*string{aws.String(id)}}
}

func asInstance(i *ec2.Instance) provider.Instance {
	out := provider.Instance{
		ID:         aws.StringValue(i.InstanceId),
		Name:       tagValue(i.Tags, "Name"),
		Type:       aws.StringValue(i.InstanceType),
		RootDevice: aws.StringValue(i.RootDeviceName),
		LaunchedAt: aws.TimeValue(i.LaunchTime),
	}
	if i.State != nil {
		out.State = aws.StringValue(i.State.Name)
	}
	if i.Placement != nil {
		out.Zone = aws.StringValue(i.Placement.AvailabilityZone)
	}
	for _, bdm := range i.BlockDeviceMappings {
		if aws.StringValue(bdm.DeviceName) == out.RootDevice && bdm.Ebs != nil {
			out.VolumeID = aws.StringValue(bdm.Ebs.VolumeId)
			break
		}
	}
	return out
}

func asSnapshot(s *ec2.Snapshot) provider.Snapshot {
	return provider.Snapshot{
		ID:        aws.StringValue(s.SnapshotId),
		Name:      tagValue(s.Tags, "Name"),
		State:     aws.StringValue(s.State),
		SizeGiB:   aws.Int64Value(s.VolumeSize),
		StartedAt: aws.TimeValue(s.StartTime),
	}
}

func tagValue(tags []*ec2.Tag, key string) string {
	for _, t := range tags {
		if aws.StringValue(t.Key) == key {
			return aws.StringValue(t.Value)
		}
	}
	return ""
}
