package auto_install

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Files writes configuration files of the installed system. Paths are absolute paths as
// seen from inside the installed system, e.g. "/etc/hostname".
type Files interface {
	WriteFile(name string, data []byte, perm os.FileMode) error
	AppendFile(name string, data []byte) error
	// CopyFile copies a file of the live system into the installed system.
	CopyFile(src, dst string) error
}

var (
	_ Files = (*LocalFiles)(nil)
	_ Files = (*DryFiles)(nil)
)

// LocalFiles writes below Root, the mountpoint of the installed system.
type LocalFiles struct {
	Root string
}

func (f *LocalFiles) path(name string) string { return filepath.Join(f.Root, name) }

func (f *LocalFiles) WriteFile(name string, data []byte, perm os.FileMode) error {
	target := f.path(name)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	return os.WriteFile(target, data, perm)
}

func (f *LocalFiles) AppendFile(name string, data []byte) error {
	file, err := os.OpenFile(f.path(name), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func (f *LocalFiles) CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	target := f.path(dst)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// DryFiles prints what would be written instead of writing it.
type DryFiles struct {
	Root string
	Out  io.Writer
}

func (f *DryFiles) WriteFile(name string, data []byte, _ os.FileMode) error {
	fmt.Fprintf(f.Out, "[dry-run] write %s (%d bytes)\n", filepath.Join(f.Root, name), len(data))
	return nil
}

func (f *DryFiles) AppendFile(name string, data []byte) error {
	fmt.Fprintf(f.Out, "[dry-run] append %s (%d bytes)\n", filepath.Join(f.Root, name), len(data))
	return nil
}

func (f *DryFiles) CopyFile(src, dst string) error {
	fmt.Fprintf(f.Out, "[dry-run] copy %s -> %s\n", src, filepath.Join(f.Root, dst))
	return nil
}
