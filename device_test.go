package auto_install

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grandchild/auto_install/exec/exectest"
)

const gigabytes = 1000000000

func newTestScanner() (*Scanner, *exectest.MockRunner, *Messages) {
	runner := exectest.NewMockRunner()
	messages := quietMessages()
	return NewScanner(runner, messages), runner, messages
}

func sizeQuery(device string) exectest.CommandMatcher {
	return exectest.Equal("lsblk --noheadings --nodeps --bytes --output path,size " + device)
}

func partitionQuery(device string) exectest.CommandMatcher {
	return exectest.Equal("lsblk --noheadings --output path " + device)
}

func TestValidateDevice(t *testing.T) {
	ctx := context.Background()
	scanner, runner, _ := newTestScanner()
	runner.AddCommandOutput(sizeQuery("/dev/sda"), "/dev/sda 32000000000\n")
	runner.AddCommandOutput(sizeQuery("/dev/sdb"), "/dev/sdc 32000000000")
	runner.AddCommandOutput(sizeQuery("/dev/sdc"), "/dev/sdc")
	runner.AddCommandFailure(sizeQuery("/dev/sdd"), errors.New("not a block device"))
	runner.AddCommandOutput(sizeQuery("/dev/sde"), "/dev/sde lots")

	require.NoError(t, scanner.ValidateDevice(ctx, "/dev/sda", 10*gigabytes))
	require.ErrorIs(t, scanner.ValidateDevice(ctx, "/dev/sda", 64*gigabytes), ErrDeviceTooSmall)
	require.ErrorIs(t, scanner.ValidateDevice(ctx, "/dev/sdb", 10*gigabytes), ErrDevice)
	require.ErrorIs(t, scanner.ValidateDevice(ctx, "/dev/sdc", 10*gigabytes), ErrDevice)
	require.ErrorIs(t, scanner.ValidateDevice(ctx, "/dev/sdd", 10*gigabytes), ErrDevice)
	require.ErrorIs(t, scanner.ValidateDevice(ctx, "/dev/sde", 10*gigabytes), ErrDevice)

	call := runner.Find(sizeQuery("/dev/sda"))
	require.NotNil(t, call)
	require.True(t, call.Options.ReadOnly)
}

func TestHasPartitions(t *testing.T) {
	ctx := context.Background()
	scanner, runner, _ := newTestScanner()
	runner.AddCommandOutput(partitionQuery("/dev/sda"), "/dev/sda\n/dev/sda1\n/dev/sda2")
	runner.AddCommandOutput(partitionQuery("/dev/sdb"), "/dev/sdb")

	has, err := scanner.HasPartitions(ctx, "/dev/sda")
	require.NoError(t, err)
	require.True(t, has)
	has, err = scanner.HasPartitions(ctx, "/dev/sdb")
	require.NoError(t, err)
	require.False(t, has)
	_, err = scanner.HasPartitions(ctx, "/dev/sdz")
	require.ErrorIs(t, err, ErrDevice)
}

func TestAutoSelectDevice(t *testing.T) {
	ctx := context.Background()
	scanner, runner, messages := newTestScanner()
	runner.AddCommandOutput(exectest.Equal("lsblk --noheadings --nodeps --output path"), "/dev/sda\n/dev/sdb\n/dev/sdc")
	runner.AddCommandOutput(sizeQuery("/dev/sda"), "/dev/sda 8000000000")
	runner.AddCommandOutput(sizeQuery("/dev/sdb"), "/dev/sdb 64000000000")
	runner.AddCommandOutput(sizeQuery("/dev/sdc"), "/dev/sdc 64000000000")
	runner.AddCommandOutput(partitionQuery("/dev/sdb"), "/dev/sdb\n/dev/sdb1")
	runner.AddCommandOutput(partitionQuery("/dev/sdc"), "/dev/sdc")

	device, err := scanner.AutoSelectDevice(ctx, 10*gigabytes)
	require.NoError(t, err)
	require.Equal(t, "/dev/sdc", device)

	shown := drained(messages)
	require.Contains(t, shown, "not met by device: /dev/sda")
	require.Contains(t, shown, "Partitions found on device: /dev/sdb")
}

func TestAutoSelectDeviceNone(t *testing.T) {
	scanner, runner, _ := newTestScanner()
	runner.AddCommandOutput(exectest.Equal("lsblk --noheadings --nodeps --output path"), "/dev/sda")
	runner.AddCommandOutput(sizeQuery("/dev/sda"), "/dev/sda 8000000000")

	_, err := scanner.AutoSelectDevice(context.Background(), 10*gigabytes)
	require.ErrorIs(t, err, ErrNoDevice)
}

func TestAutoSelectDeviceNoList(t *testing.T) {
	scanner, _, _ := newTestScanner()
	_, err := scanner.AutoSelectDevice(context.Background(), 10*gigabytes)
	require.ErrorIs(t, err, ErrDevice)
}

func TestDeviceTable(t *testing.T) {
	ctx := context.Background()
	scanner, runner, _ := newTestScanner()
	runner.AddCommandOutput(exectest.HasPrefix("lsblk --nodeps --output"),
		"PATH      SIZE RM RO PTTYPE PTUUID\n/dev/sda  30G  0  0  gpt    abcd\n/dev/sdb  64G  1  0")

	headings, rows, err := scanner.DeviceTable(ctx)
	require.NoError(t, err)
	require.Contains(t, headings, "PTTYPE")
	require.Len(t, rows, 2)
	require.Contains(t, rows[1], "/dev/sdb")

	empty, emptyRunner, _ := newTestScanner()
	emptyRunner.AddCommandOutput(exectest.HasPrefix("lsblk --nodeps --output"), "PATH SIZE RM RO PTTYPE PTUUID")
	_, _, err = empty.DeviceTable(ctx)
	require.ErrorIs(t, err, ErrDevice)
}

func TestMounts(t *testing.T) {
	scanner, runner, _ := newTestScanner()
	runner.AddCommandOutput(exectest.Equal("lsblk --noheadings --list --output path,mountpoints /dev/sda"),
		"/dev/sda\n/dev/sda1 /mnt/boot\n/dev/sda2 /mnt\n/dev/sda3 [SWAP]\n/dev/sda4")

	mounts, err := scanner.Mounts(context.Background(), "/dev/sda")
	require.NoError(t, err)
	require.Equal(t, []Mount{
		{Path: "/dev/sda1", Mountpoint: "/mnt/boot"},
		{Path: "/dev/sda2", Mountpoint: "/mnt"},
		{Path: "/dev/sda3", Mountpoint: "[SWAP]"},
	}, mounts)
	require.False(t, mounts[0].IsSwap())
	require.True(t, mounts[2].IsSwap())
}

func TestMountsPartitionMountedTwice(t *testing.T) {
	scanner, runner, _ := newTestScanner()
	runner.AddCommandOutput(exectest.Equal("lsblk --noheadings --list --output path,mountpoints /dev/sda"),
		"/dev/sda\n/dev/sda1 /mnt/boot\n/dev/sda2 /mnt\n          /run/media/live/root\n/dev/sda3")

	mounts, err := scanner.Mounts(context.Background(), "/dev/sda")
	require.NoError(t, err)
	require.Equal(t, []Mount{
		{Path: "/dev/sda1", Mountpoint: "/mnt/boot"},
		{Path: "/dev/sda2", Mountpoint: "/mnt"},
		{Path: "/dev/sda2", Mountpoint: "/run/media/live/root"},
	}, mounts)
}

func TestTimeZones(t *testing.T) {
	scanner, runner, _ := newTestScanner()
	runner.AddCommandOutput(exectest.HasPrefix("timedatectl list-timezones"), "Africa/Abidjan\nEurope/Berlin\nUTC")
	zones, err := scanner.TimeZones(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Africa/Abidjan", "Europe/Berlin", "UTC"}, zones)
}

func TestPartitionPath(t *testing.T) {
	tests := []struct {
		device string
		n      int
		want   string
	}{
		{"/dev/sda", 1, "/dev/sda1"},
		{"/dev/vda", 2, "/dev/vda2"},
		{"/dev/nvme0n1", 2, "/dev/nvme0n1p2"},
		{"/dev/mmcblk0", 1, "/dev/mmcblk0p1"},
		{"/dev/loop7", 1, "/dev/loop7p1"},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, PartitionPath(tc.device, tc.n))
	}
}
