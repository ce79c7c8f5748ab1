package auto_install

import (
	"github.com/grandchild/auto_install/errstring"
)

var (
	ErrResource        = errstring.New("resource")                  // ErrResource is returned when a bundled resource can't be read
	ErrConfig          = errstring.New("invalid configuration")     // ErrConfig is returned when the distro configuration can't be parsed
	ErrUnknownDistro   = errstring.New("unknown distro")            // ErrUnknownDistro is returned for a distro name missing from distros.yml
	ErrUnknownField    = errstring.New("unrecognized field")        // ErrUnknownField is returned when a profile key doesn't exist
	ErrInvalidValue    = errstring.New("invalid value")             // ErrInvalidValue is returned when a profile value fails validation
	ErrProfile         = errstring.New("profile")                   // ErrProfile is returned when a profile or package list can't be read or written
	ErrConfExists      = errstring.New("configuration exists")      // ErrConfExists is returned when generating would overwrite files
	ErrDevice          = errstring.New("device")                    // ErrDevice is returned when a block device query fails
	ErrDeviceTooSmall  = errstring.New("not enough space on device") // ErrDeviceTooSmall is returned when a device is below the minimum size
	ErrNoDevice        = errstring.New("no suitable device")        // ErrNoDevice is returned when no device could be selected
	ErrUnsupportedBoot = errstring.New("unsupported boot mode")     // ErrUnsupportedBoot is returned when the distro can't boot in the detected mode
	ErrNotRoot         = errstring.New("root privileges required")  // ErrNotRoot is returned when installing without root privileges
	ErrStepFailed      = errstring.New("installation step failed")  // ErrStepFailed is returned when a critical installation step fails
	ErrAborted         = errstring.New("installation aborted")      // ErrAborted is returned when the installation was aborted
	ErrCanceled        = errstring.New("canceled by user")          // ErrCanceled is returned when the user quits the interface
	ErrTerminal        = errstring.New("terminal")                  // ErrTerminal is returned when the terminal can't host the interface
)
