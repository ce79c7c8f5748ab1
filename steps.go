package auto_install

import (
	"context"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"github.com/grandchild/auto_install/exec"
)

const (
	rootMount       = "/mnt"
	bootMount       = "/mnt/boot"
	bootPartSizeMiB = 500
	bootPartNum     = 1
	rootPartNum     = 2
	installedLogDir = "/var/log"
)

// Step is a single action of an installation.
type Step struct {
	// Name identifies the step for Requires.
	Name  string
	Title string
	// Critical steps stop the installation when they fail. Other failures are
	// reported and the installation goes on.
	Critical bool
	// Requires names earlier steps that must have succeeded for this one to run.
	Requires []string
	Run      func(ctx context.Context) error
}

// Plan turns a profile into the steps that install it.
type Plan struct {
	Config     *Config
	Profile    *Profile
	Packages   []string
	Runner     exec.Runner
	Files      Files
	Scanner    *Scanner
	System     System
	Translator *Translator
	Messages   *Messages

	uefi bool
}

// Variables returns the values available to step titles and the distro's bootloader
// command.
func (p *Plan) Variables() StringMap {
	device := p.Profile.Device
	return MergeVariables(
		p.Config.Variables,
		p.Profile.Variables(),
		StringMap{
			"bootPart":  PartitionPath(device, bootPartNum),
			"rootPart":  PartitionPath(device, rootPartNum),
			"rootMount": rootMount,
			"bootMount": bootMount,
		},
	)
}

// Steps returns the installation steps in order.
func (p *Plan) Steps() []Step {
	vars := p.Variables()
	title := func(key string, extra StringMap) string {
		return p.Translator.GetVar(key, MergeVariables(vars, extra))
	}
	device := p.Profile.Device
	bootPart, rootPart := vars["bootPart"], vars["rootPart"]

	steps := []Step{
		{Name: "boot_mode", Title: title("step_boot_mode", nil), Critical: true, Run: p.detectBootMode},
		{Name: "unmount", Title: title("step_unmount", nil), Critical: true, Run: func(ctx context.Context) error {
			return p.unmountDevice(ctx, device)
		}},
		{Name: "partition", Title: title("step_partition", nil), Critical: true, Run: func(ctx context.Context) error {
			return p.Runner.Exec(ctx, []string{"fdisk", device}, exec.Stdin(p.fdiskScript()))
		}},
		{Name: "filesystems", Title: title("step_filesystems", nil), Critical: true, Run: func(ctx context.Context) error {
			if err := p.Runner.Exec(ctx, []string{"mkfs.fat", "-F", "32", bootPart}); err != nil {
				return err
			}
			return p.Runner.Exec(ctx, []string{"mkfs.ext4", rootPart})
		}},
		{Name: "mount", Title: title("step_mount", nil), Critical: true, Run: func(ctx context.Context) error {
			if err := p.Runner.Exec(ctx, []string{"mount", "--mkdir", rootPart, rootMount}); err != nil {
				return err
			}
			return p.Runner.Exec(ctx, []string{"mount", "--mkdir", bootPart, bootMount})
		}},
		{Name: "sync", Title: title("step_sync", nil), Critical: true, Run: func(ctx context.Context) error {
			argv := []string{"pacman", "-Sy"}
			if p.Profile.NetworkInstall {
				argv = append(argv, "--noconfirm", "archlinux-keyring")
			}
			return p.Runner.Exec(ctx, argv, exec.Streamed())
		}},
		{Name: "pacstrap", Title: title("step_pacstrap", nil), Critical: true, Run: func(ctx context.Context) error {
			argv := append([]string{"pacstrap", "-K", rootMount}, p.Packages...)
			return p.Runner.Exec(ctx, argv, exec.Streamed())
		}},
		{Name: "fstab", Title: title("step_fstab", nil), Critical: true, Run: func(ctx context.Context) error {
			fstab, err := p.Runner.ExecOutput(ctx, []string{"genfstab", "-U", rootMount})
			if err != nil {
				return err
			}
			return p.Files.WriteFile("/etc/fstab", []byte(fstab+"\n"), 0o644)
		}},
	}
	if p.Config.Distro.PostInstall {
		steps = append(steps, p.postInstallSteps(vars, title)...)
	}
	if p.Config.LogFile != "" {
		target := path.Join(installedLogDir, vars["name"]+".log")
		steps = append(steps, Step{
			Name:  "save_log",
			Title: title("step_save_log", StringMap{"target": target}),
			Run: func(ctx context.Context) error {
				return p.Files.CopyFile(p.Config.LogFile, target)
			},
		})
	}
	steps = append(steps, Step{
		Name: "final_unmount", Title: title("step_final_unmount", nil), Critical: true,
		Run: func(ctx context.Context) error { return p.unmountDevice(ctx, device) },
	})
	return steps
}

// postInstallSteps configure the installed system from inside a chroot.
func (p *Plan) postInstallSteps(vars StringMap, title func(string, StringMap) string) []Step {
	chroot := exec.Decorate(p.Runner, exec.Chroot(rootMount))
	profile := p.Profile
	steps := []Step{}

	if bootloader := strings.TrimSpace(ExpandVariables(p.Config.Distro.Bootloader, vars)); bootloader != "" {
		steps = append(steps, Step{
			Name: "bootloader", Title: title("step_bootloader", nil), Critical: true,
			Run: func(ctx context.Context) error {
				argv, err := shlex.Split(bootloader)
				if err != nil {
					return err
				}
				return chroot.Exec(ctx, argv)
			},
		})
	}

	steps = append(steps,
		Step{Name: "root_password", Title: title("step_root_password", nil), Run: func(ctx context.Context) error {
			return chroot.Exec(ctx, []string{"chpasswd"}, exec.Stdin("root:"+profile.RootPassword+"\n"))
		}},
		Step{Name: "sudo_group", Title: title("step_sudo_group", nil), Run: func(ctx context.Context) error {
			return chroot.Exec(ctx, []string{"groupadd", "--force", profile.SudoGroup})
		}},
		Step{Name: "user", Title: title("step_user", nil), Requires: []string{"sudo_group"}, Run: func(ctx context.Context) error {
			return chroot.Exec(ctx, []string{
				"useradd", "--create-home", "--user-group", "--groups", profile.SudoGroup, profile.Username,
			})
		}},
		Step{Name: "user_password", Title: title("step_user_password", nil), Requires: []string{"user"}, Run: func(ctx context.Context) error {
			return chroot.Exec(ctx, []string{"chpasswd"}, exec.Stdin(profile.Username+":"+profile.UserPassword+"\n"))
		}},
		Step{Name: "sudoers", Title: title("step_sudoers", nil), Requires: []string{"sudo_group"}, Run: func(ctx context.Context) error {
			return p.Files.AppendFile("/etc/sudoers", []byte(p.template("sudoers", vars)))
		}},
		Step{Name: "time_zone", Title: title("step_time_zone", nil), Run: func(ctx context.Context) error {
			return chroot.Exec(ctx, []string{"ln", "-sf", path.Join("/usr/share/zoneinfo", profile.TimeZone), "/etc/localtime"})
		}},
		Step{Name: "hwclock", Title: title("step_hwclock", nil), Run: func(ctx context.Context) error {
			return chroot.Exec(ctx, []string{"hwclock", "--systohc"})
		}},
		Step{Name: "locale", Title: title("step_locale", nil), Run: func(ctx context.Context) error {
			if err := p.Files.AppendFile("/etc/locale.gen", []byte("\n"+p.template("locale.gen", vars))); err != nil {
				return err
			}
			if err := chroot.Exec(ctx, []string{"locale-gen"}); err != nil {
				return err
			}
			return p.Files.WriteFile("/etc/locale.conf", []byte(p.template("locale.conf", vars)), 0o644)
		}},
		Step{Name: "hostname", Title: title("step_hostname", nil), Run: func(ctx context.Context) error {
			return p.Files.WriteFile("/etc/hostname", []byte(p.template("hostname", vars)), 0o644)
		}},
	)

	for _, service := range profile.Services {
		service := service
		steps = append(steps, Step{
			Name:  "service_" + service,
			Title: title("step_service", StringMap{"service": service}),
			Run: func(ctx context.Context) error {
				return chroot.Exec(ctx, []string{"systemctl", "enable", service})
			},
		})
	}
	for n, command := range profile.Commands {
		command := command
		steps = append(steps, Step{
			Name:  "command_" + strconv.Itoa(n),
			Title: title("step_command", StringMap{"command": command}),
			Run: func(ctx context.Context) error {
				argv, err := shlex.Split(command)
				if err != nil {
					return err
				}
				return chroot.Exec(ctx, argv, exec.Streamed())
			},
		})
	}
	return steps
}

func (p *Plan) detectBootMode(ctx context.Context) error {
	p.uefi = p.System.IsUEFI()
	if p.uefi {
		p.Messages.Info("%s", p.Translator.Get("msg_uefi"))
		return nil
	}
	p.Messages.Info("%s", p.Translator.Get("msg_bios"))
	if !p.Config.Distro.BIOSSupport {
		return ErrUnsupportedBoot.Wrapf("%s requires UEFI", p.Config.Distro.Title)
	}
	return nil
}

// fdiskScript answers fdisk's prompts: a boot partition at the start of the device and
// a root partition filling the rest. Empty lines accept fdisk's default.
func (p *Plan) fdiskScript() string {
	bootSize := "+" + strconv.Itoa(bootPartSizeMiB) + "M"
	var lines []string
	if p.uefi {
		lines = []string{
			"g",
			"n", strconv.Itoa(bootPartNum), "", bootSize,
			"t", "1",
			"n", strconv.Itoa(rootPartNum), "", "",
			"w",
		}
	} else {
		lines = []string{
			"o",
			"n", "p", strconv.Itoa(bootPartNum), "", bootSize,
			"a",
			"n", "p", strconv.Itoa(rootPartNum), "", "",
			"w",
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

// unmountDevice unmounts every mounted partition of device, deepest mountpoints first,
// and turns off its swap partitions.
func (p *Plan) unmountDevice(ctx context.Context, device string) error {
	mounts, err := p.Scanner.Mounts(ctx, device)
	if err != nil {
		return err
	}
	sort.SliceStable(mounts, func(a, b int) bool {
		return len(mounts[a].Mountpoint) > len(mounts[b].Mountpoint)
	})
	for _, mount := range mounts {
		if mount.IsSwap() {
			err = p.Runner.Exec(ctx, []string{"swapoff", mount.Path})
		} else {
			err = p.Runner.Exec(ctx, []string{"umount", mount.Mountpoint})
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Plan) template(name string, vars StringMap) string {
	return ExpandVariables(MustGetResource("templates/"+name+".tmpl"), vars)
}
