//go:build unix

package auto_install

import (
	"os"

	"golang.org/x/sys/unix"
)

// efiPlatformSizeFile only exists when the live system was booted through UEFI.
const efiPlatformSizeFile = "/sys/firmware/efi/fw_platform_size"

// System answers questions about the machine the installer runs on.
type System interface {
	IsRoot() bool
	IsUEFI() bool
}

// LocalSystem is the machine the installer runs on.
type LocalSystem struct{}

func (LocalSystem) IsRoot() bool { return unix.Geteuid() == 0 }

func (LocalSystem) IsUEFI() bool {
	_, err := os.Stat(efiPlatformSizeFile)
	return err == nil
}

func osFileWriteAccess(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}
