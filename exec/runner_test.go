package exec_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grandchild/auto_install/exec"
	"github.com/grandchild/auto_install/exec/exectest"
)

func TestLocalRunnerOutput(t *testing.T) {
	runner := exec.NewLocalRunner()
	out, err := runner.ExecOutput(context.Background(), []string{"sh", "-c", "echo '  hello  '"})
	require.NoError(t, err)
	require.Equal(t, "hello", out)
}

func TestLocalRunnerStdin(t *testing.T) {
	runner := exec.NewLocalRunner()
	out, err := runner.ExecOutput(context.Background(), []string{"cat"}, exec.Stdin("root:secret"))
	require.NoError(t, err)
	require.Equal(t, "root:secret", out)
}

func TestLocalRunnerFailure(t *testing.T) {
	runner := exec.NewLocalRunner()
	err := runner.Exec(context.Background(), []string{"sh", "-c", "echo broken >&2; exit 3"})
	require.Error(t, err)
	require.ErrorIs(t, err, exec.ErrCommandFailed)
	require.Contains(t, err.Error(), "broken")
	require.Contains(t, err.Error(), "sh -c")
}

func TestLocalRunnerStreamed(t *testing.T) {
	var stdout, stderr bytes.Buffer
	runner := &exec.LocalRunner{Stdout: &stdout, Stderr: &stderr}
	require.NoError(t, runner.Exec(context.Background(), []string{"sh", "-c", "echo out; echo err >&2"}, exec.Streamed()))
	require.Equal(t, "out\n", stdout.String())
	require.Equal(t, "err\n", stderr.String())
}

func TestLocalRunnerEmptyCommand(t *testing.T) {
	err := exec.NewLocalRunner().Exec(context.Background(), nil)
	require.ErrorIs(t, err, exec.ErrEmptyCommand)
}

func TestLocalRunnerEnv(t *testing.T) {
	out, err := exec.NewLocalRunner().ExecOutput(
		context.Background(), []string{"sh", "-c", "echo $AUTO_INSTALL_TEST"}, exec.Env("AUTO_INSTALL_TEST=1"),
	)
	require.NoError(t, err)
	require.Equal(t, "1", out)
}

func TestChrootDecorator(t *testing.T) {
	mock := exectest.NewMockRunner()
	runner := exec.Decorate(mock, exec.Chroot("/mnt"))
	require.NoError(t, runner.Exec(context.Background(), []string{"hwclock", "--systohc"}))
	exectest.ReceivedEqual(t, mock, "arch-chroot /mnt hwclock --systohc")
}

func TestDryRunner(t *testing.T) {
	mock := exectest.NewMockRunner()
	mock.AddCommandOutput(exectest.HasPrefix("lsblk"), "/dev/sda\n")
	var out bytes.Buffer
	runner := exec.NewDryRunner(mock, &out)

	devices, err := runner.ExecOutput(context.Background(), []string{"lsblk", "--output", "path"}, exec.ReadOnly())
	require.NoError(t, err)
	require.Equal(t, "/dev/sda", devices)

	require.NoError(t, runner.Exec(context.Background(), []string{"mkfs.ext4", "/dev/sda2"}))
	require.NoError(t, runner.Exec(context.Background(), []string{"chpasswd"}, exec.Stdin("root:root")))
	require.Equal(t, 1, mock.Len())
	require.Equal(t, "[dry-run] mkfs.ext4 /dev/sda2\n[dry-run] chpasswd < (input)\n", out.String())
	require.NotContains(t, out.String(), "root:root")
}

func TestJoinQuotes(t *testing.T) {
	require.Equal(t, "ln -sf /usr/share/zoneinfo/Etc/GMT+1 /etc/localtime",
		exec.Join([]string{"ln", "-sf", "/usr/share/zoneinfo/Etc/GMT+1", "/etc/localtime"}))
	require.Equal(t, "umount '/dev/sda?*'", exec.Join([]string{"umount", "/dev/sda?*"}))
	require.Equal(t, "'a b'", exec.Quote("a b"))
}

func TestMockRunnerDefaultError(t *testing.T) {
	mock := exectest.NewMockRunner()
	mock.ErrDefault = errors.New("nope")
	mock.AddCommandOutput(exectest.Equal("true"), "")
	require.NoError(t, mock.Exec(context.Background(), []string{"true"}))
	require.EqualError(t, mock.Exec(context.Background(), []string{"false"}), "nope")
	require.Equal(t, "false", mock.LastCommand())
}
