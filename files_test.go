package auto_install

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalFiles(t *testing.T) {
	root := t.TempDir()
	files := &LocalFiles{Root: root}

	require.NoError(t, files.WriteFile("/etc/hostname", []byte("moos\n"), 0o644))
	content, err := os.ReadFile(filepath.Join(root, "etc", "hostname"))
	require.NoError(t, err)
	require.Equal(t, "moos\n", string(content))

	require.NoError(t, files.AppendFile("/etc/hostname", []byte("more\n")))
	content, err = os.ReadFile(filepath.Join(root, "etc", "hostname"))
	require.NoError(t, err)
	require.Equal(t, "moos\nmore\n", string(content))

	src := filepath.Join(t.TempDir(), "install.log")
	require.NoError(t, os.WriteFile(src, []byte("log line\n"), 0o640))
	require.NoError(t, files.CopyFile(src, "/var/log/auto_moos.log"))
	target := filepath.Join(root, "var", "log", "auto_moos.log")
	content, err = os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "log line\n", string(content))
	info, err := os.Stat(target)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	require.Error(t, files.CopyFile(filepath.Join(root, "missing"), "/x"))
}

func TestDryFiles(t *testing.T) {
	root := t.TempDir()
	var out bytes.Buffer
	files := &DryFiles{Root: root, Out: &out}

	require.NoError(t, files.WriteFile("/etc/hostname", []byte("moos\n"), 0o644))
	require.NoError(t, files.AppendFile("/etc/sudoers", []byte("x")))
	require.NoError(t, files.CopyFile("/tmp/log", "/var/log/auto_moos.log"))

	require.Contains(t, out.String(), "[dry-run] write "+filepath.Join(root, "etc/hostname")+" (5 bytes)")
	require.Contains(t, out.String(), "[dry-run] append "+filepath.Join(root, "etc/sudoers"))
	require.Contains(t, out.String(), "[dry-run] copy /tmp/log -> "+filepath.Join(root, "var/log/auto_moos.log"))
	require.NoFileExists(t, filepath.Join(root, "etc", "hostname"))
}
