package ectwo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/aws/aws-sdk-go/service/ec2/ec2iface"
	"github.com/fogtools/fogtest/pkg/provider"
	"github.com/fogtools/fogtest/pkg/provider/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeEC2 cans DescribeX responses and records mutating calls in order.
// Only the methods the provider exercises are implemented.
type fakeEC2 struct {
	ec2iface.EC2API

	mu    sync.Mutex
	calls []string
	errs  map[string]error

	instances     [][]*ec2.Instance
	snapshots     [][]*ec2.Snapshot
	volumeType    string
	createIn      *ec2.CreateVolumeInput
	attachIn      *ec2.AttachVolumeInput
	detachedIDs   []string
	deletedIDs    []string
	stoppedIDs    []string
	startedIDs    []string
	waiterOptsLen int
}

func (f *fakeEC2) step(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
	return f.errs[op]
}

func (f *fakeEC2) DescribeInstancesWithContext(_ aws.Context, _ *ec2.DescribeInstancesInput, _ ...request.Option) (*ec2.DescribeInstancesOutput, error) {
	if err := f.step("describe-instances"); err != nil {
		return nil, err
	}
	out := &ec2.DescribeInstancesOutput{}
	for _, page := range f.instances {
		out.Reservations = append(out.Reservations, &ec2.Reservation{Instances: page})
	}
	return out, nil
}

func (f *fakeEC2) DescribeInstancesPagesWithContext(_ aws.Context, _ *ec2.DescribeInstancesInput, fn func(*ec2.DescribeInstancesOutput, bool) bool, _ ...request.Option) error {
	if err := f.step("describe-instances-pages"); err != nil {
		return err
	}
	for i, page := range f.instances {
		out := &ec2.DescribeInstancesOutput{Reservations: []*ec2.Reservation{{Instances: page}}}
		if !fn(out, i == len(f.instances)-1) {
			break
		}
	}
	return nil
}

func (f *fakeEC2) DescribeSnapshotsWithContext(_ aws.Context, _ *ec2.DescribeSnapshotsInput, _ ...request.Option) (*ec2.DescribeSnapshotsOutput, error) {
	if err := f.step("describe-snapshots"); err != nil {
		return nil, err
	}
	out := &ec2.DescribeSnapshotsOutput{}
	for _, page := range f.snapshots {
		out.Snapshots = append(out.Snapshots, page...)
	}
	return out, nil
}

func (f *fakeEC2) DescribeSnapshotsPagesWithContext(_ aws.Context, _ *ec2.DescribeSnapshotsInput, fn func(*ec2.DescribeSnapshotsOutput, bool) bool, _ ...request.Option) error {
	if err := f.step("describe-snapshots-pages"); err != nil {
		return err
	}
	for i, page := range f.snapshots {
		if !fn(&ec2.DescribeSnapshotsOutput{Snapshots: page}, i == len(f.snapshots)-1) {
			break
		}
	}
	return nil
}

func (f *fakeEC2) DescribeVolumesWithContext(_ aws.Context, in *ec2.DescribeVolumesInput, _ ...request.Option) (*ec2.DescribeVolumesOutput, error) {
	if err := f.step("describe-volumes"); err != nil {
		return nil, err
	}
	return &ec2.DescribeVolumesOutput{Volumes: []*ec2.Volume{{
		VolumeId:   in.VolumeIds[0],
		VolumeType: aws.String(f.volumeType),
	}}}, nil
}

func (f *fakeEC2) StopInstancesWithContext(_ aws.Context, in *ec2.StopInstancesInput, _ ...request.Option) (*ec2.StopInstancesOutput, error) {
	if err := f.step("stop"); err != nil {
		return nil, err
	}
	f.stoppedIDs = append(f.stoppedIDs, aws.StringValue(in.InstanceIds[0]))
	return &ec2.StopInstancesOutput{}, nil
}

func (f *fakeEC2) StartInstancesWithContext(_ aws.Context, in *ec2.StartInstancesInput, _ ...request.Option) (*ec2.StartInstancesOutput, error) {
	if err := f.step("start"); err != nil {
		return nil, err
	}
	f.startedIDs = append(f.startedIDs, aws.StringValue(in.InstanceIds[0]))
	return &ec2.StartInstancesOutput{}, nil
}

func (f *fakeEC2) DetachVolumeWithContext(_ aws.Context, in *ec2.DetachVolumeInput, _ ...request.Option) (*ec2.VolumeAttachment, error) {
	if err := f.step("detach"); err != nil {
		return nil, err
	}
	f.detachedIDs = append(f.detachedIDs, aws.StringValue(in.VolumeId))
	return &ec2.VolumeAttachment{}, nil
}

func (f *fakeEC2) AttachVolumeWithContext(_ aws.Context, in *ec2.AttachVolumeInput, _ ...request.Option) (*ec2.VolumeAttachment, error) {
	if err := f.step("attach"); err != nil {
		return nil, err
	}
	f.attachIn = in
	return &ec2.VolumeAttachment{}, nil
}

func (f *fakeEC2) CreateVolumeWithContext(_ aws.Context, in *ec2.CreateVolumeInput, _ ...request.Option) (*ec2.Volume, error) {
	if err := f.step("create-volume"); err != nil {
		return nil, err
	}
	f.createIn = in
	return &ec2.Volume{VolumeId: aws.String("vol-new")}, nil
}

func (f *fakeEC2) DeleteVolumeWithContext(_ aws.Context, in *ec2.DeleteVolumeInput, _ ...request.Option) (*ec2.DeleteVolumeOutput, error) {
	if err := f.step("delete-volume"); err != nil {
		return nil, err
	}
	f.deletedIDs = append(f.deletedIDs, aws.StringValue(in.VolumeId))
	return &ec2.DeleteVolumeOutput{}, nil
}

func (f *fakeEC2) WaitUntilInstanceStoppedWithContext(_ aws.Context, _ *ec2.DescribeInstancesInput, opts ...request.WaiterOption) error {
	f.waiterOptsLen = len(opts)
	return f.step("wait-stopped")
}

func (f *fakeEC2) WaitUntilInstanceRunningWithContext(_ aws.Context, _ *ec2.DescribeInstancesInput, _ ...request.WaiterOption) error {
	return f.step("wait-running")
}

func (f *fakeEC2) WaitUntilVolumeAvailableWithContext(_ aws.Context, _ *ec2.DescribeVolumesInput, _ ...request.WaiterOption) error {
	return f.step("wait-volume-available")
}

func (f *fakeEC2) WaitUntilVolumeInUseWithContext(_ aws.Context, _ *ec2.DescribeVolumesInput, _ ...request.WaiterOption) error {
	return f.step("wait-volume-in-use")
}

func setupProvider(f *fakeEC2, extra ...Option) provider.Provider {
	opts := append([]Option{
		API(f),
		Region("us-east-1"),
		Logger(zap.NewNop()),
		WaitTimeout(time.Minute),
		PollInterval(time.Millisecond),
	}, extra...)
	return New(opts...)
}

func testEC2Instance(id, name string) *ec2.Instance {
	return &ec2.Instance{
		InstanceId:     aws.String(id),
		InstanceType:   aws.String("m5.large"),
		RootDeviceName: aws.String("/dev/sda1"),
		LaunchTime:     aws.Time(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		State:          &ec2.InstanceState{Name: aws.String(ec2.InstanceStateNameRunning)},
		Placement:      &ec2.Placement{AvailabilityZone: aws.String("us-east-1a")},
		Tags:           []*ec2.Tag{{Key: aws.String("Name"), Value: aws.String(name)}},
		BlockDeviceMappings: []*ec2.InstanceBlockDeviceMapping{
			{DeviceName: aws.String("/dev/sda1"), Ebs: &ec2.EbsInstanceBlockDevice{VolumeId: aws.String("vol-old")}},
		},
	}
}

func testEC2Snapshot(id, name string, startedAt time.Time) *ec2.Snapshot {
	return &ec2.Snapshot{
		SnapshotId: aws.String(id),
		State:      aws.String(ec2.SnapshotStateCompleted),
		VolumeSize: aws.Int64(30),
		StartTime:  aws.Time(startedAt),
		Tags:       []*ec2.Tag{{Key: aws.String("Name"), Value: aws.String(name)}},
	}
}

func TestFindInstance(t *testing.T) {
	f := &fakeEC2{instances: [][]*ec2.Instance{{testEC2Instance("i-0123", "fogtesting-linux")}}}
	p := setupProvider(f)

	inst, err := p.FindInstance(context.Background(), "fogtesting-linux")
	require.NoError(t, err)
	assert.Equal(t, "i-0123", inst.ID)
	assert.Equal(t, "fogtesting-linux", inst.Name)
	assert.Equal(t, "running", inst.State)
	assert.Equal(t, "us-east-1a", inst.Zone)
	assert.Equal(t, "/dev/sda1", inst.RootDevice)
	assert.Equal(t, "vol-old", inst.VolumeID)
}

func TestFindInstanceNotFound(t *testing.T) {
	p := setupProvider(&fakeEC2{})

	_, err := p.FindInstance(context.Background(), "fogtesting-plan9")
	require.Error(t, err)
	require.ErrorIs(t, err, status.ErrInstanceNotFound)
}

func TestFindInstanceAmbiguous(t *testing.T) {
	f := &fakeEC2{instances: [][]*ec2.Instance{{
		testEC2Instance("i-0123", "fogtesting-linux"),
		testEC2Instance("i-0456", "fogtesting-linux"),
	}}}
	p := setupProvider(f)

	_, err := p.FindInstance(context.Background(), "fogtesting-linux")
	require.Error(t, err)
	require.ErrorIs(t, err, status.ErrAmbiguousName)
}

func TestFindSnapshotMostRecentWins(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.AddDate(0, 2, 0)
	f := &fakeEC2{snapshots: [][]*ec2.Snapshot{{
		testEC2Snapshot("snap-jan", "linux-clean", older),
		testEC2Snapshot("snap-mar", "linux-clean", newer),
	}}}
	p := setupProvider(f)

	snap, err := p.FindSnapshot(context.Background(), "linux-clean")
	require.NoError(t, err)
	assert.Equal(t, "snap-mar", snap.ID)
	assert.Equal(t, "linux-clean", snap.Name)
	assert.Equal(t, int64(30), snap.SizeGiB)
}

func TestFindSnapshotNotFound(t *testing.T) {
	p := setupProvider(&fakeEC2{})

	_, err := p.FindSnapshot(context.Background(), "plan9-clean")
	require.Error(t, err)
	require.ErrorIs(t, err, status.ErrSnapshotNotFound)
}

func TestRestore(t *testing.T) {
	f := &fakeEC2{volumeType: "gp2"}
	p := setupProvider(f)

	inst := provider.Instance{ID: "i-0123", Zone: "us-east-1a", RootDevice: "/dev/sda1", VolumeID: "vol-old"}
	err := p.Restore(context.Background(), provider.Snapshot{ID: "snap-1"}, inst)
	require.NoError(t, err)

	require.Equal(t, []string{
		"stop",
		"wait-stopped",
		"describe-volumes",
		"detach",
		"wait-volume-available",
		"create-volume",
		"wait-volume-available",
		"attach",
		"wait-volume-in-use",
		"start",
		"wait-running",
		"delete-volume",
	}, f.calls)

	assert.Equal(t, []string{"i-0123"}, f.stoppedIDs)
	assert.Equal(t, []string{"i-0123"}, f.startedIDs)
	assert.Equal(t, []string{"vol-old"}, f.detachedIDs)
	assert.Equal(t, []string{"vol-old"}, f.deletedIDs)

	require.NotNil(t, f.createIn)
	assert.Equal(t, "snap-1", aws.StringValue(f.createIn.SnapshotId))
	assert.Equal(t, "us-east-1a", aws.StringValue(f.createIn.AvailabilityZone))
	assert.Equal(t, "gp2", aws.StringValue(f.createIn.VolumeType))

	require.NotNil(t, f.attachIn)
	assert.Equal(t, "vol-new", aws.StringValue(f.attachIn.VolumeId))
	assert.Equal(t, "i-0123", aws.StringValue(f.attachIn.InstanceId))
	assert.Equal(t, "/dev/sda1", aws.StringValue(f.attachIn.Device))

	assert.NotZero(t, f.waiterOptsLen)
}

func TestRestoreKeepVolumes(t *testing.T) {
	f := &fakeEC2{volumeType: "gp2"}
	p := setupProvider(f, KeepVolumes(true))

	inst := provider.Instance{ID: "i-0123", Zone: "us-east-1a", RootDevice: "/dev/sda1", VolumeID: "vol-old"}
	err := p.Restore(context.Background(), provider.Snapshot{ID: "snap-1"}, inst)
	require.NoError(t, err)
	assert.Empty(t, f.deletedIDs)
	assert.NotContains(t, f.calls, "delete-volume")
}

func TestRestoreWithoutCurrentVolume(t *testing.T) {
	f := &fakeEC2{}
	p := setupProvider(f)

	// no root volume attached: nothing to detach nor delete
	inst := provider.Instance{ID: "i-0123", Zone: "us-east-1a", RootDevice: "/dev/sda1"}
	err := p.Restore(context.Background(), provider.Snapshot{ID: "snap-1"}, inst)
	require.NoError(t, err)

	assert.NotContains(t, f.calls, "detach")
	assert.NotContains(t, f.calls, "describe-volumes")
	assert.NotContains(t, f.calls, "delete-volume")
	require.NotNil(t, f.createIn)
	assert.Nil(t, f.createIn.VolumeType)
}

func TestRestoreForcedVolumeType(t *testing.T) {
	f := &fakeEC2{volumeType: "gp2"}
	p := setupProvider(f, VolumeType("gp3"))

	inst := provider.Instance{ID: "i-0123", Zone: "us-east-1a", RootDevice: "/dev/sda1", VolumeID: "vol-old"}
	err := p.Restore(context.Background(), provider.Snapshot{ID: "snap-1"}, inst)
	require.NoError(t, err)

	assert.NotContains(t, f.calls, "describe-volumes")
	require.NotNil(t, f.createIn)
	assert.Equal(t, "gp3", aws.StringValue(f.createIn.VolumeType))
}

func TestRestoreUnresolvedHandles(t *testing.T) {
	p := setupProvider(&fakeEC2{})

	err := p.Restore(context.Background(), provider.Snapshot{}, provider.Instance{ID: "i-0123", RootDevice: "/dev/sda1"})
	require.Error(t, err)
	require.ErrorIs(t, err, status.ErrBadState)

	err = p.Restore(context.Background(), provider.Snapshot{ID: "snap-1"}, provider.Instance{ID: "i-0123"})
	require.Error(t, err)
	require.ErrorIs(t, err, status.ErrBadState)
}

func TestRestoreAPIFailure(t *testing.T) {
	f := &fakeEC2{errs: map[string]error{
		"stop": awserr.New("UnauthorizedOperation", "not allowed to stop", nil),
	}}
	p := setupProvider(f)

	inst := provider.Instance{ID: "i-0123", Zone: "us-east-1a", RootDevice: "/dev/sda1", VolumeID: "vol-old"}
	err := p.Restore(context.Background(), provider.Snapshot{ID: "snap-1"}, inst)
	require.Error(t, err)
	require.ErrorIs(t, err, status.ErrUnauthorized)
	assert.Equal(t, []string{"stop"}, f.calls)
}

func TestRestoreWaitTimeout(t *testing.T) {
	f := &fakeEC2{errs: map[string]error{
		"wait-stopped": awserr.New(request.WaiterResourceNotReadyErrorCode, "exceeded wait attempts", nil),
	}}
	p := setupProvider(f)

	inst := provider.Instance{ID: "i-0123", Zone: "us-east-1a", RootDevice: "/dev/sda1", VolumeID: "vol-old"}
	err := p.Restore(context.Background(), provider.Snapshot{ID: "snap-1"}, inst)
	require.Error(t, err)
	require.ErrorIs(t, err, status.ErrWaitTimeout)
}

func TestListInstances(t *testing.T) {
	f := &fakeEC2{instances: [][]*ec2.Instance{
		{testEC2Instance("i-b", "fogtesting-windows")},
		{testEC2Instance("i-a", "fogtesting-linux")},
	}}
	p := setupProvider(f)

	instances, err := p.ListInstances(context.Background(), "fogtesting-")
	require.NoError(t, err)
	require.Len(t, instances, 2)
	// all pages are consumed and results come back sorted by name
	assert.Equal(t, "fogtesting-linux", instances[0].Name)
	assert.Equal(t, "fogtesting-windows", instances[1].Name)
}

func TestListSnapshots(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := &fakeEC2{snapshots: [][]*ec2.Snapshot{
		{testEC2Snapshot("snap-1", "windows-clean", t0)},
		{testEC2Snapshot("snap-2", "linux-clean", t0), testEC2Snapshot("snap-3", "linux-clean", t0.AddDate(0, 1, 0))},
	}}
	p := setupProvider(f)

	snapshots, err := p.ListSnapshots(context.Background(), "-clean")
	require.NoError(t, err)
	require.Len(t, snapshots, 3)
	assert.Equal(t, "snap-3", snapshots[0].ID)
	assert.Equal(t, "snap-2", snapshots[1].ID)
	assert.Equal(t, "windows-clean", snapshots[2].Name)
}

func TestSentinelMapping(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{code: "UnauthorizedOperation", want: status.ErrUnauthorized},
		{code: "AuthFailure", want: status.ErrUnauthorized},
		{code: "RequestLimitExceeded", want: status.ErrThrottled},
		{code: "IncorrectInstanceState", want: status.ErrBadState},
		{code: "VolumeInUse", want: status.ErrBadState},
		{code: "InvalidInstanceID.NotFound", want: status.ErrInstanceNotFound},
		{code: "InvalidSnapshot.NotFound", want: status.ErrSnapshotNotFound},
		{code: "SomethingElseEntirely", want: status.ErrProviderAPI},
	}
	for _, tts := range tests {
		tt := tts
		t.Run(tt.code, func(t *testing.T) {
			t.Parallel()
			err := toSentinelErrors(awserr.New(tt.code, "some message", nil))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSentinelMappingPassthrough(t *testing.T) {
	require.NoError(t, toSentinelErrors(nil))

	plain := context.DeadlineExceeded
	require.Equal(t, plain, toSentinelErrors(plain))
}
