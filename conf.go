package auto_install

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v2"
)

const (
	packagesFilename      = "packages"
	profileFilename       = "profile.yml"
	legacyProfileFilename = "profile.json"
)

// PackagesPath returns the location of the package list in a configuration directory.
func PackagesPath(confDir string) string { return filepath.Join(confDir, packagesFilename) }

// ProfilePath returns the location of the profile in a configuration directory.
func ProfilePath(confDir string) string { return filepath.Join(confDir, profileFilename) }

// LoadPackages reads a package list, one package per line. Blank lines and lines
// starting with '#' are skipped.
func LoadPackages(filename string) ([]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, ErrProfile.Wrap(err)
	}
	defer file.Close()
	packages := []string{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		packages = append(packages, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, ErrProfile.Wrapf("%s: %w", filename, err)
	}
	if len(packages) == 0 {
		return nil, ErrProfile.Wrapf("%s: no packages listed", filename)
	}
	return packages, nil
}

// DumpPackages writes a package list, one package per line.
func DumpPackages(filename string, packages []string) error {
	content := strings.Join(packages, "\n") + "\n"
	if err := os.WriteFile(filename, []byte(content), 0o644); err != nil {
		return ErrProfile.Wrap(err)
	}
	return nil
}

// LoadProfile reads a profile file on top of the distro's defaults. Values that fail
// validation and unknown keys are reported as warnings and otherwise ignored.
func LoadProfile(filename string, distro Distro, messages *Messages) (*Profile, error) {
	profile := NewProfile(distro)
	content, err := os.ReadFile(filename)
	if err != nil {
		return profile, ErrProfile.Wrap(err)
	}
	values := make(map[string]any)
	if err := yaml.Unmarshal(content, &values); err != nil {
		return profile, ErrProfile.Wrapf("%s: %w", filename, err)
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		err := profile.Set(key, values[key])
		switch {
		case errors.Is(err, ErrUnknownField):
			messages.Warning("Unrecognized field in profile: %s", key)
		case err != nil:
			messages.Warning(
				"The given value is invalid for the corresponding field:\n\tfield: %s\n\tvalue: %v\n\t%v",
				key, values[key], errors.Unwrap(err),
			)
		}
	}
	return profile, nil
}

// DumpProfile writes all profile fields as YAML. The file holds passwords, so only the
// owner may read it.
func DumpProfile(filename string, profile *Profile) error {
	content, err := yaml.Marshal(profile)
	if err != nil {
		return ErrProfile.Wrap(err)
	}
	if err := os.WriteFile(filename, content, 0o600); err != nil {
		return ErrProfile.Wrap(err)
	}
	return nil
}

// LoadConf reads the package list and profile from a configuration directory. Missing
// or broken files fall back to the distro's defaults with an error message, so an
// installation can always proceed from defaults.
func LoadConf(confDir string, distro Distro, messages *Messages) ([]string, *Profile) {
	packages, err := LoadPackages(PackagesPath(confDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			messages.Verbose("No package list at %s, using defaults", PackagesPath(confDir))
		} else {
			messages.Error("Unable to load package list, using defaults: %v", err)
		}
		packages = append([]string{}, distro.Packages...)
	}

	profileFile := ProfilePath(confDir)
	if _, err := os.Stat(profileFile); errors.Is(err, os.ErrNotExist) {
		legacy := filepath.Join(confDir, legacyProfileFilename)
		if _, err := os.Stat(legacy); err == nil {
			profileFile = legacy
		}
	}
	profile, err := LoadProfile(profileFile, distro, messages)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			messages.Verbose("No profile at %s, using defaults", profileFile)
		} else {
			messages.Error("Unable to load profile, using defaults: %v", err)
		}
		profile = NewProfile(distro)
	}
	return packages, profile
}

// GenerateConf writes the distro's default package list and profile into confDir. It
// refuses to overwrite existing files.
func GenerateConf(confDir string, distro Distro) error {
	for _, filename := range []string{PackagesPath(confDir), ProfilePath(confDir)} {
		if _, err := os.Stat(filename); err == nil {
			return ErrConfExists.Wrapf("%s", filename)
		}
	}
	if parent := existingParent(confDir); !osFileWriteAccess(parent) {
		return ErrProfile.Wrapf("configuration location is not writeable: %s", parent)
	}
	if err := os.MkdirAll(confDir, 0o755); err != nil {
		return ErrProfile.Wrap(err)
	}
	if err := DumpPackages(PackagesPath(confDir), distro.Packages); err != nil {
		return err
	}
	if err := DumpProfile(ProfilePath(confDir), NewProfile(distro)); err != nil {
		return fmt.Errorf("generate profile: %w", err)
	}
	return nil
}

// existingParent returns dir itself or its closest ancestor that exists.
func existingParent(dir string) string {
	for {
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
