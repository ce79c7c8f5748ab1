package auto_install

import (
	"log"

	"gopkg.in/yaml.v2"
)

const distrosFilename = "distros.yml"

// Distro describes one target operating system: the defaults its profile starts from
// and how its installation differs from the others.
type Distro struct {
	Name        string   `yaml:"-"`
	Title       string   `yaml:"title"`
	ConfDir     string   `yaml:"conf_dir"`
	LogFile     string   `yaml:"log_file"`
	Hostname    string   `yaml:"hostname"`
	BootLabel   string   `yaml:"boot_label"`
	BIOSSupport bool     `yaml:"bios_support"`
	PostInstall bool     `yaml:"post_install"`
	Bootloader  string   `yaml:"bootloader"`
	Packages    []string `yaml:"packages"`
	Services    []string `yaml:"services"`
}

// Config is the installer configuration, assembled from the bundled distro
// definitions and the commandline.
type Config struct {
	Distro    Distro
	Variables StringMap

	// ConfDir holds the package list and profile.
	ConfDir string
	// LogFile receives every message of a run.
	LogFile string
	// Device overrides the profile's device.
	Device         string
	DryRun         bool
	NonInteractive bool
	NoRestart      bool
}

// NewConfig loads the definition of the named distro from the resource box.
func NewConfig(distro string) (*Config, error) {
	distros, err := loadDistros(MustGetResource(distrosFilename))
	if err != nil {
		log.Printf("Unable to parse config file %s\n", distrosFilename)
		return nil, err
	}
	d, ok := distros[distro]
	if !ok {
		return nil, ErrUnknownDistro.Wrapf("%q", distro)
	}
	return &Config{
		Distro:  d,
		ConfDir: d.ConfDir,
		LogFile: d.LogFile,
		Variables: StringMap{
			"name":  "auto_" + d.Name,
			"title": d.Title,
		},
	}, nil
}

// loadDistros parses a distros file, filling in the per-distro defaults that depend
// on the name.
func loadDistros(content string) (map[string]Distro, error) {
	distros := make(map[string]Distro)
	if err := yaml.Unmarshal([]byte(content), distros); err != nil {
		return nil, ErrConfig.Wrap(err)
	}
	for name, d := range distros {
		d.Name = name
		if d.Title == "" {
			d.Title = name
		}
		if d.ConfDir == "" {
			d.ConfDir = "~/.auto_" + name
		}
		if d.LogFile == "" {
			d.LogFile = "~/.auto_" + name + "_log"
		}
		if d.Hostname == "" {
			d.Hostname = name
		}
		if d.BootLabel == "" {
			d.BootLabel = d.Title
		}
		distros[name] = d
	}
	return distros, nil
}
