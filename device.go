package auto_install

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"github.com/grandchild/auto_install/exec"
)

// Mount is a mounted block device.
type Mount struct {
	Path       string
	Mountpoint string
}

// IsSwap returns true for active swap partitions, which are turned off rather than
// unmounted.
func (m Mount) IsSwap() bool { return m.Mountpoint == "[SWAP]" }

// Scanner queries the live system for block devices and time zones. It only runs
// read-only commands, so it works the same in a dry run.
type Scanner struct {
	runner   exec.Runner
	messages *Messages
}

// NewScanner returns a Scanner running its queries through runner.
func NewScanner(runner exec.Runner, messages *Messages) *Scanner {
	return &Scanner{runner: runner, messages: messages}
}

func (p *Scanner) query(ctx context.Context, argv ...string) (string, error) {
	return p.runner.ExecOutput(ctx, argv, exec.ReadOnly())
}

// ListDevices returns the paths of all whole-disk block devices.
func (p *Scanner) ListDevices(ctx context.Context) ([]string, error) {
	out, err := p.query(ctx, "lsblk", "--noheadings", "--nodeps", "--output", "path")
	if err != nil {
		return nil, ErrDevice.Wrapf("list devices: %w", err)
	}
	if out == "" {
		return nil, ErrDevice.Wrapf("lsblk listed no devices")
	}
	return strings.Fields(out), nil
}

// ValidateDevice checks that lsblk knows the device and that it holds at least
// minBytes.
func (p *Scanner) ValidateDevice(ctx context.Context, device string, minBytes int64) error {
	out, err := p.query(ctx, "lsblk", "--noheadings", "--nodeps", "--bytes", "--output", "path,size", device)
	if err != nil || out == "" {
		return ErrDevice.Wrapf("failed to get device information from lsblk for device %s", device)
	}
	fields := strings.Fields(out)
	if len(fields) < 2 {
		return ErrDevice.Wrapf("not enough fields given by lsblk for device %s", device)
	}
	if fields[0] != device {
		return ErrDevice.Wrapf("wrong device given by lsblk: expected %s, given %s", device, fields[0])
	}
	size, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return ErrDevice.Wrapf("invalid size %q for device %s", fields[1], device)
	}
	if size < minBytes {
		return ErrDeviceTooSmall.Wrapf(
			"%s: minimum required %d bytes, available on device %d bytes", device, minBytes, size,
		)
	}
	return nil
}

// HasPartitions returns true if the device contains any partitions.
func (p *Scanner) HasPartitions(ctx context.Context, device string) (bool, error) {
	out, err := p.query(ctx, "lsblk", "--noheadings", "--output", "path", device)
	if err != nil || out == "" {
		return false, ErrDevice.Wrapf("failed to use lsblk to list partitions on device %s", device)
	}
	return len(strings.Split(out, "\n")) > 1, nil
}

// DeviceTable returns the lsblk headings row and one row per device, for choosing a
// device interactively. The device path is the first column of each row.
func (p *Scanner) DeviceTable(ctx context.Context) (string, []string, error) {
	out, err := p.query(ctx, "lsblk", "--nodeps", "--output", "path,size,rm,ro,pttype,ptuuid")
	if err != nil {
		return "", nil, ErrDevice.Wrapf("failed to get device information from lsblk: %w", err)
	}
	lines := strings.Split(out, "\n")
	if len(lines) <= 1 {
		return "", nil, ErrDevice.Wrapf("not enough devices listed")
	}
	return lines[0], lines[1:], nil
}

// Mounts returns every mount of the device's partitions, in the order lsblk lists
// them. A partition mounted more than once is returned once per mountpoint: lsblk
// prints the extra mountpoints on indented lines below the partition.
func (p *Scanner) Mounts(ctx context.Context, device string) ([]Mount, error) {
	out, err := p.query(ctx, "lsblk", "--noheadings", "--list", "--output", "path,mountpoints", device)
	if err != nil {
		return nil, ErrDevice.Wrapf("list mounts of %s: %w", device, err)
	}
	mounts := []Mount{}
	path := ""
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t") {
			path, fields = fields[0], fields[1:]
		}
		if path == "" || len(fields) == 0 {
			continue
		}
		mounts = append(mounts, Mount{Path: path, Mountpoint: strings.Join(fields, " ")})
	}
	return mounts, nil
}

// TimeZones returns all time zones known to the system.
func (p *Scanner) TimeZones(ctx context.Context) ([]string, error) {
	out, err := p.query(ctx, "timedatectl", "list-timezones", "--no-pager")
	if err != nil || out == "" {
		return nil, ErrDevice.Wrapf("failed to get the list of time zones from timedatectl")
	}
	return strings.Split(out, "\n"), nil
}

// AutoSelectDevice returns the first device that is large enough and has no
// partitions. Devices with partitions are never chosen automatically.
func (p *Scanner) AutoSelectDevice(ctx context.Context, minBytes int64) (string, error) {
	devices, err := p.ListDevices(ctx)
	if err != nil {
		return "", err
	}
	for _, device := range devices {
		if err := p.ValidateDevice(ctx, device, minBytes); err != nil {
			p.messages.Verbose("%v", err)
			p.messages.Info("The minimum requirements for installation were not met by device: %s", device)
			continue
		}
		hasPartitions, err := p.HasPartitions(ctx, device)
		if err != nil {
			p.messages.Error("%v", err)
			continue
		}
		if hasPartitions {
			p.messages.Warning("Partitions found on device: %s", device)
			p.messages.Info(
				"Formatting a device that already contains partitions will result in irreversible data loss!" +
					"\n\t\tExplicit permission (via interactive mode) is required to format a device with existing partitions",
			)
			continue
		}
		return device, nil
	}
	return "", ErrNoDevice
}

// PartitionPath returns the path of partition n on device. Devices whose name ends in a
// digit (nvme0n1, mmcblk0, loop0) separate the partition number with a "p".
func PartitionPath(device string, n int) string {
	if device != "" && unicode.IsDigit(rune(device[len(device)-1])) {
		return device + "p" + strconv.Itoa(n)
	}
	return device + strconv.Itoa(n)
}
