package auto_install

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testDistro() Distro {
	return Distro{
		Name:      "moos",
		Title:     "MOOS",
		Hostname:  "moos",
		BootLabel: "MOOS",
		Packages:  []string{"moos"},
		Services:  []string{"sshd.service", "NetworkManager"},
	}
}

func TestNewProfileDefaults(t *testing.T) {
	p := NewProfile(testDistro())
	require.False(t, p.NetworkInstall)
	require.Equal(t, int64(10000000000), p.MinDeviceBytes)
	require.Empty(t, p.Device)
	require.Equal(t, "MOOS", p.BootLabel)
	require.Equal(t, "America/Denver", p.TimeZone)
	require.Equal(t, "moos", p.Hostname)
	require.Equal(t, "root", p.RootPassword)
	require.Equal(t, "main", p.Username)
	require.Equal(t, "main", p.UserPassword)
	require.Equal(t, "wheel", p.SudoGroup)
	require.Equal(t, "en_US.UTF-8", p.Locale)
	require.True(t, p.Restart)
	require.Equal(t, []string{"sshd.service", "NetworkManager"}, p.Services)
	require.Empty(t, p.Commands)
	require.NoError(t, p.Validate())
}

func TestNewProfileDistroOverrides(t *testing.T) {
	p := NewProfile(Distro{Name: "arch", Title: "Arch Linux", Hostname: "arch", BootLabel: "Arch Linux"})
	require.Equal(t, "arch", p.Hostname)
	require.Equal(t, "Arch Linux", p.BootLabel)
	require.Empty(t, p.Services)
}

func TestProfileClone(t *testing.T) {
	p := NewProfile(testDistro())
	c := p.Clone()
	c.Services[0] = "changed.service"
	c.Hostname = "other"
	require.Equal(t, "sshd.service", p.Services[0])
	require.Equal(t, "moos", p.Hostname)
}

func TestProfileSet(t *testing.T) {
	tests := []struct {
		key   string
		value any
		ok    bool
	}{
		{"hostname", "my-host", true},
		{"hostname", "My-Host", false},
		{"hostname", "1234", false},
		{"hostname", strings.Repeat("a", 65), false},
		{"hostname", "", false},
		{"username", "bob_1", true},
		{"username", "-bob", false},
		{"username", "1000", false},
		{"username", strings.Repeat("b", 33), false},
		{"sudo_group", "sudo", true},
		{"sudo_group", "wheel group", false},
		{"root_password", "s3cr3t!", true},
		{"root_password", "", false},
		{"user_password", "pässword", false},
		{"boot_label", "My OS", true},
		{"boot_label", "", false},
		{"time_zone", "Europe/Berlin", true},
		{"time_zone", "Mars/Olympus", false},
		{"time_zone", "Local", false},
		{"min_device_bytes", "20000000000", true},
		{"min_device_bytes", 5, true},
		{"min_device_bytes", float64(1e10), true},
		{"min_device_bytes", "-5", false},
		{"min_device_bytes", "abc", false},
		{"min_device_bytes", "0", false},
		{"network_install", true, true},
		{"network_install", "yes", true},
		{"restart", "off", true},
		{"restart", "maybe", false},
		{"restart", 3, false},
		{"locale", "de_DE.UTF-8", true},
		{"locale", "en US", false},
		{"device", "/dev/sda", true},
		{"services", []any{"ufw.service"}, true},
		{"services", []any{"bad service"}, false},
		{"services", "ufw.service", false},
		{"commands", []any{"pacman -S --noconfirm vim"}, true},
		{"commands", []any{"echo 'unterminated"}, false},
		{"commands", []any{""}, false},
	}
	for _, tc := range tests {
		p := NewProfile(testDistro())
		before, _ := p.Get(tc.key)
		err := p.Set(tc.key, tc.value)
		if tc.ok {
			require.NoError(t, err, "%s=%v", tc.key, tc.value)
			continue
		}
		require.ErrorIs(t, err, ErrInvalidValue, "%s=%v", tc.key, tc.value)
		after, _ := p.Get(tc.key)
		require.Equal(t, before, after, "%s changed on error", tc.key)
	}
}

func TestProfileSetValues(t *testing.T) {
	p := NewProfile(testDistro())
	require.NoError(t, p.Set("min_device_bytes", "20000000000"))
	require.Equal(t, int64(20000000000), p.MinDeviceBytes)
	require.NoError(t, p.Set("restart", "no"))
	require.False(t, p.Restart)
	require.NoError(t, p.Set("network_install", "true"))
	require.True(t, p.NetworkInstall)
	require.NoError(t, p.Set("commands", []any{"echo hi", "true"}))
	require.Equal(t, []string{"echo hi", "true"}, p.Commands)

	value, err := p.Get("network_install")
	require.NoError(t, err)
	require.Equal(t, "true", value)
	value, err = p.Get("services")
	require.NoError(t, err)
	require.Equal(t, "sshd.service, NetworkManager", value)
}

func TestProfileUnknownField(t *testing.T) {
	p := NewProfile(testDistro())
	require.ErrorIs(t, p.Set("favorite_color", "blue"), ErrUnknownField)
	_, err := p.Get("favorite_color")
	require.ErrorIs(t, err, ErrUnknownField)
	_, err = p.Kind("favorite_color")
	require.ErrorIs(t, err, ErrUnknownField)
}

func TestProfileValidate(t *testing.T) {
	p := NewProfile(testDistro())
	p.Hostname = "NOT VALID"
	require.ErrorIs(t, p.Validate(), ErrInvalidValue)

	p = NewProfile(testDistro())
	p.Commands = []string{"echo \"open"}
	require.ErrorIs(t, p.Validate(), ErrInvalidValue)
}

func TestFieldKeys(t *testing.T) {
	require.Equal(t, []string{
		"network_install", "min_device_bytes", "device", "boot_label", "time_zone", "hostname",
		"root_password", "username", "user_password", "sudo_group", "locale", "restart",
	}, FieldKeys())
}

func TestProfileVariables(t *testing.T) {
	p := NewProfile(testDistro())
	p.Device = "/dev/sda"
	vars := p.Variables()
	require.Equal(t, "/dev/sda", vars["device"])
	require.Equal(t, "UTF-8", vars["charset"])
	require.Equal(t, "wheel", vars["sudoGroup"])

	p.Locale = "de_DE.ISO-8859-1"
	require.Equal(t, "ISO-8859-1", p.Variables()["charset"])
	p.Locale = "C"
	require.Equal(t, "UTF-8", p.Variables()["charset"])
}

func TestSetDefaultsLogsErrors(t *testing.T) {
	restoreLog(t)
	var logged bytes.Buffer
	log.SetOutput(&logged)

	setDefaults(Profile{})
	require.Contains(t, logged.String(), "Unable to set profile defaults")

	logged.Reset()
	p := &Profile{}
	setDefaults(p)
	require.Empty(t, logged.String())
	require.Equal(t, "America/Denver", p.TimeZone)
}
