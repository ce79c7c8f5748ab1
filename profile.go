package auto_install

import (
	"fmt"
	"log"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
	"unicode"

	"github.com/creasty/defaults"
	"github.com/google/shlex"
)

// Profile holds every setting of an installation. It is stored as profile.yml in the
// configuration directory and can be changed in the interactive interface.
type Profile struct {
	NetworkInstall bool     `yaml:"network_install" default:"false"`
	MinDeviceBytes int64    `yaml:"min_device_bytes" default:"10000000000"`
	Device         string   `yaml:"device"`
	BootLabel      string   `yaml:"boot_label" default:"MOOS"`
	TimeZone       string   `yaml:"time_zone" default:"America/Denver"`
	Hostname       string   `yaml:"hostname" default:"moos"`
	RootPassword   string   `yaml:"root_password" default:"root"`
	Username       string   `yaml:"username" default:"main"`
	UserPassword   string   `yaml:"user_password" default:"main"`
	SudoGroup      string   `yaml:"sudo_group" default:"wheel"`
	Locale         string   `yaml:"locale" default:"en_US.UTF-8"`
	Restart        bool     `yaml:"restart" default:"true"`
	Services       []string `yaml:"services"`
	Commands       []string `yaml:"commands"`
}

// FieldKind tells the interface how a field is edited.
type FieldKind int

const (
	FieldBool FieldKind = iota
	FieldNumber
	FieldText
	FieldDevice
	FieldTimeZone
	FieldList
)

type fieldSpec struct {
	key      string
	kind     FieldKind
	validate func(string) error
}

// profileFields lists the fields in the order they are presented.
var profileFields = []fieldSpec{
	{"network_install", FieldBool, nil},
	{"min_device_bytes", FieldNumber, ValidateNumeric},
	{"device", FieldDevice, nil},
	{"boot_label", FieldText, ValidateBootLabel},
	{"time_zone", FieldTimeZone, ValidateTimeZone},
	{"hostname", FieldText, ValidateHostname},
	{"root_password", FieldText, ValidatePassword},
	{"username", FieldText, ValidateName},
	{"user_password", FieldText, ValidatePassword},
	{"sudo_group", FieldText, ValidateName},
	{"locale", FieldText, ValidateLocale},
	{"restart", FieldBool, nil},
	{"services", FieldList, ValidateService},
	{"commands", FieldList, ValidateCommand},
}

// NewProfile returns a profile with the defaults of the given distro.
func NewProfile(distro Distro) *Profile {
	p := &Profile{}
	setDefaults(p)
	if distro.Hostname != "" {
		p.Hostname = distro.Hostname
	}
	if distro.BootLabel != "" {
		p.BootLabel = distro.BootLabel
	}
	p.Services = append([]string{}, distro.Services...)
	p.Commands = []string{}
	return p
}

// setDefaults fills in the `default` struct tags of v, which must be a struct pointer.
func setDefaults(v any) {
	if err := defaults.Set(v); err != nil {
		log.Printf("Unable to set profile defaults: %v\n", err)
	}
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Services = append([]string{}, p.Services...)
	c.Commands = append([]string{}, p.Commands...)
	return &c
}

// FieldKeys returns the keys of all scalar fields that can be edited one value at a
// time, in presentation order.
func FieldKeys() []string {
	keys := []string{}
	for _, f := range profileFields {
		if f.kind != FieldList {
			keys = append(keys, f.key)
		}
	}
	return keys
}

// Kind returns the kind of the field with the given key.
func (p *Profile) Kind(key string) (FieldKind, error) {
	spec, err := lookupField(key)
	if err != nil {
		return 0, err
	}
	return spec.kind, nil
}

func lookupField(key string) (fieldSpec, error) {
	for _, f := range profileFields {
		if f.key == key {
			return f, nil
		}
	}
	return fieldSpec{}, ErrUnknownField.Wrapf("%s", key)
}

// Get returns the string representation of a field's value.
func (p *Profile) Get(key string) (string, error) {
	switch key {
	case "network_install":
		return strconv.FormatBool(p.NetworkInstall), nil
	case "min_device_bytes":
		return strconv.FormatInt(p.MinDeviceBytes, 10), nil
	case "device":
		return p.Device, nil
	case "boot_label":
		return p.BootLabel, nil
	case "time_zone":
		return p.TimeZone, nil
	case "hostname":
		return p.Hostname, nil
	case "root_password":
		return p.RootPassword, nil
	case "username":
		return p.Username, nil
	case "user_password":
		return p.UserPassword, nil
	case "sudo_group":
		return p.SudoGroup, nil
	case "locale":
		return p.Locale, nil
	case "restart":
		return strconv.FormatBool(p.Restart), nil
	case "services":
		return strings.Join(p.Services, ", "), nil
	case "commands":
		return strings.Join(p.Commands, "; "), nil
	}
	return "", ErrUnknownField.Wrapf("%s", key)
}

// Set validates the value and assigns it to the field with the given key. Values can be
// strings (as typed into the interface) or the types a YAML or JSON decoder produces.
// On error the field is left unchanged.
func (p *Profile) Set(key string, value any) error {
	spec, err := lookupField(key)
	if err != nil {
		return err
	}
	switch spec.kind {
	case FieldBool:
		b, err := toBool(value)
		if err != nil {
			return ErrInvalidValue.Wrapf("%s: %w", key, err)
		}
		switch key {
		case "network_install":
			p.NetworkInstall = b
		case "restart":
			p.Restart = b
		}
		return nil
	case FieldNumber:
		str, err := toString(value)
		if err != nil {
			return ErrInvalidValue.Wrapf("%s: %w", key, err)
		}
		if err := spec.validate(str); err != nil {
			return ErrInvalidValue.Wrapf("%s: %w", key, err)
		}
		n, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return ErrInvalidValue.Wrapf("%s: %w", key, err)
		}
		p.MinDeviceBytes = n
		return nil
	case FieldList:
		items, err := toStrings(value)
		if err != nil {
			return ErrInvalidValue.Wrapf("%s: %w", key, err)
		}
		for _, item := range items {
			if err := spec.validate(item); err != nil {
				return ErrInvalidValue.Wrapf("%s: %w", key, err)
			}
		}
		switch key {
		case "services":
			p.Services = items
		case "commands":
			p.Commands = items
		}
		return nil
	}

	str, err := toString(value)
	if err != nil {
		return ErrInvalidValue.Wrapf("%s: %w", key, err)
	}
	if spec.validate != nil {
		if err := spec.validate(str); err != nil {
			return ErrInvalidValue.Wrapf("%s: %w", key, err)
		}
	}
	switch key {
	case "device":
		p.Device = str
	case "boot_label":
		p.BootLabel = str
	case "time_zone":
		p.TimeZone = str
	case "hostname":
		p.Hostname = str
	case "root_password":
		p.RootPassword = str
	case "username":
		p.Username = str
	case "user_password":
		p.UserPassword = str
	case "sudo_group":
		p.SudoGroup = str
	case "locale":
		p.Locale = str
	}
	return nil
}

// Validate checks every field, returning the first error.
func (p *Profile) Validate() error {
	for _, f := range profileFields {
		if f.validate == nil {
			continue
		}
		if f.kind == FieldList {
			items := p.Services
			if f.key == "commands" {
				items = p.Commands
			}
			for _, item := range items {
				if err := f.validate(item); err != nil {
					return ErrInvalidValue.Wrapf("%s: %w", f.key, err)
				}
			}
			continue
		}
		value, _ := p.Get(f.key)
		if err := f.validate(value); err != nil {
			return ErrInvalidValue.Wrapf("%s: %w", f.key, err)
		}
	}
	return nil
}

// Variables returns the profile values used by the system file templates.
func (p *Profile) Variables() StringMap {
	charset := "UTF-8"
	if i := strings.LastIndex(p.Locale, "."); i >= 0 && i < len(p.Locale)-1 {
		charset = p.Locale[i+1:]
	}
	return StringMap{
		"device":    p.Device,
		"bootLabel": p.BootLabel,
		"timeZone":  p.TimeZone,
		"hostname":  p.Hostname,
		"username":  p.Username,
		"sudoGroup": p.SudoGroup,
		"locale":    p.Locale,
		"charset":   charset,
	}
}

// Validators

var (
	hostnameChars = regexp.MustCompile(`^[a-z0-9-]+$`)
	nameChars     = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	localeChars   = regexp.MustCompile(`^[A-Za-z0-9_.@-]+$`)
	serviceChars  = regexp.MustCompile(`^[A-Za-z0-9_.@:-]+$`)
)

// ValidateNumeric accepts positive numbers made of decimal digits only.
func ValidateNumeric(value string) error {
	if value == "" || strings.TrimFunc(value, unicode.IsDigit) != "" {
		return fmt.Errorf("the given value is not numeric: %s", value)
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("the given value is too large: %s", value)
	}
	if n <= 0 {
		return fmt.Errorf("the given value must be greater than zero: %s", value)
	}
	return nil
}

// ValidateBootLabel accepts non-empty printable ASCII.
func ValidateBootLabel(value string) error {
	if value == "" {
		return fmt.Errorf("boot labels must contain at least one character")
	}
	if !isPrintableASCII(value) {
		return fmt.Errorf("boot labels cannot contain non-printable or non-ascii characters")
	}
	return nil
}

// ValidateHostname accepts 1 to 64 lowercase letters, numbers and hyphens, with at
// least one letter.
func ValidateHostname(value string) error {
	if value == "" {
		return fmt.Errorf("hostnames must contain at least one character")
	}
	if len(value) > 64 {
		return fmt.Errorf("hostnames cannot be longer than 64 characters")
	}
	if !hostnameChars.MatchString(value) || strings.IndexFunc(value, unicode.IsLower) < 0 {
		return fmt.Errorf("hostnames may only contain lowercase letters, numbers, and hyphens")
	}
	return nil
}

// ValidateName checks user and group names.
func ValidateName(value string) error {
	if value == "" {
		return fmt.Errorf("names must contain at least one character")
	}
	if strings.TrimFunc(value, unicode.IsDigit) == "" {
		return fmt.Errorf("names cannot be entirely numeric")
	}
	if strings.HasPrefix(value, "-") {
		return fmt.Errorf("names cannot start with a hyphen")
	}
	if len(value) > 32 {
		return fmt.Errorf("names cannot be longer than 32 characters")
	}
	if !nameChars.MatchString(value) {
		return fmt.Errorf("names may only contain letters, numbers, underscores, and hyphens")
	}
	return nil
}

// ValidatePassword accepts non-empty printable ASCII.
func ValidatePassword(value string) error {
	if value == "" {
		return fmt.Errorf("passwords must contain at least one character")
	}
	if !isPrintableASCII(value) {
		return fmt.Errorf("passwords cannot contain non-printable or non-ascii characters")
	}
	return nil
}

// ValidateTimeZone accepts names from the time zone database, e.g. "Europe/Berlin".
func ValidateTimeZone(value string) error {
	if value == "" || value == "Local" {
		return fmt.Errorf("time zones must name a location such as America/Denver")
	}
	if _, err := time.LoadLocation(value); err != nil {
		return fmt.Errorf("unknown time zone: %s", value)
	}
	return nil
}

// ValidateLocale accepts locale names such as en_US.UTF-8.
func ValidateLocale(value string) error {
	if !localeChars.MatchString(value) {
		return fmt.Errorf("locales may only contain letters, numbers, and the characters _.@-")
	}
	return nil
}

// ValidateService accepts systemd unit names.
func ValidateService(value string) error {
	if !serviceChars.MatchString(value) {
		return fmt.Errorf("invalid service name: %q", value)
	}
	return nil
}

// ValidateCommand accepts commands that can be split into arguments like a shell
// would.
func ValidateCommand(value string) error {
	argv, err := shlex.Split(value)
	if err != nil {
		return fmt.Errorf("invalid command %q: %w", value, err)
	}
	if len(argv) == 0 {
		return fmt.Errorf("commands cannot be empty")
	}
	return nil
}

func isPrintableASCII(value string) bool {
	for _, r := range value {
		if r < 0x20 || r > 0x7e {
			return false
		}
	}
	return true
}

// Value conversion for Set

func toString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float64:
		if v == math.Trunc(v) && v >= 0 && v < math.MaxInt64 {
			return strconv.FormatInt(int64(v), 10), nil
		}
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case nil:
		return "", nil
	}
	return "", fmt.Errorf("unsupported value type %T", value)
}

func toBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "yes", "y", "on":
			return true, nil
		case "no", "n", "off":
			return false, nil
		}
		return strconv.ParseBool(strings.TrimSpace(v))
	}
	return false, fmt.Errorf("not a boolean: %v", value)
}

func toStrings(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return append([]string{}, v...), nil
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			str, err := toString(item)
			if err != nil {
				return nil, err
			}
			items = append(items, str)
		}
		return items, nil
	case nil:
		return []string{}, nil
	}
	return nil, fmt.Errorf("not a list: %v", value)
}
