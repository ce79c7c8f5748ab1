package auto_install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/grandchild/auto_install/exec"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2

	restartTimeout      = 10 * time.Second
	defaultTermWidth    = 80
	interactiveMsgLevel = LevelInfo
)

type cliOptions struct {
	generateConf   bool
	confDir        string
	logFile        string
	nonInteractive bool
	device         string
	dryRun         bool
	lang           string
	noRestart      bool
	help           bool
}

// Run parses the commandline and installs the named distro. It returns the process
// exit code.
//
// Commandline parameters are:
//
//	-g --generate-conf    // Write an example package list and profile and exit
//	-c --conf-dir         // Directory containing the package list and profile
//	-l --log-file         // Log file
//	-n --non-interactive  // Install without showing the terminal interface
//	-d --device           // Device to format, overrides the profile
//	   --dry-run          // Print the commands that would change the system
//	   --lang             // Interface language
//	-y --no-restart       // Don't restart once installation is complete
//	-h --help             // Print usage and exit
func Run(distro string, args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, localHost(), distro, args, os.Stdout, os.Stderr)
}

// host is the machine an installation runs on and changes.
type host struct {
	runner exec.Runner
	files  Files
	system System
}

func localHost() host {
	return host{
		runner: exec.NewLocalRunner(),
		files:  &LocalFiles{Root: rootMount},
		system: LocalSystem{},
	}
}

func run(ctx context.Context, h host, distro string, args []string, stdout, stderr io.Writer) int {
	config, err := NewConfig(distro)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailure
	}
	translator := NewTranslatorVar(config.Variables)

	opts, flags := parseFlags(config, translator, stderr)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if opts.lang != "" {
		if err := translator.SetLanguage(opts.lang); err != nil {
			fmt.Fprintf(stderr, "Language '%s' not available\n", opts.lang)
		}
		// help texts are translated when the flags are defined
		opts, flags = parseFlags(config, translator, stderr)
		_ = flags.Parse(args)
	}
	if opts.help {
		flags.Usage()
		return exitOK
	}

	if config.ConfDir, err = absPath(opts.confDir); err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	if config.LogFile, err = absPath(opts.logFile); err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	config.Device = opts.device
	config.DryRun = opts.dryRun
	config.NonInteractive = opts.nonInteractive
	config.NoRestart = opts.noRestart

	logfile, err := startLogging(config.LogFile)
	if err != nil {
		fmt.Fprintf(stderr, "Unable to open log file %s: %v\n", config.LogFile, err)
		return exitFailure
	}
	defer logfile.Close()
	log.Printf("Starting %s", config.Variables["name"])

	messages := NewMessages(interactiveMsgLevel)
	if config.NonInteractive {
		messages.SetLevel(LevelVerbose)
	}
	// anything still queued when we leave is shown on the terminal
	defer messages.ShowAll(stdout)

	if opts.generateConf {
		if err := GenerateConf(config.ConfDir, config.Distro); err != nil {
			messages.Error("%v", err)
			return exitFailure
		}
		messages.Success("%s", translator.GetVar("msg_conf_generated", StringMap{"confDir": config.ConfDir}))
		return exitOK
	}

	inst := &cliInstall{
		ctx:        ctx,
		config:     config,
		translator: translator,
		messages:   messages,
		stdout:     stdout,
		runner:     h.runner,
		files:      h.files,
		system:     h.system,
	}
	if err := inst.run(); err != nil {
		if !errors.Is(err, ErrCanceled) {
			messages.Error("%v", err)
		}
		log.Println(err)
		return exitFailure
	}
	return exitOK
}

// parseFlags defines the commandline flags, with help texts in the current language.
func parseFlags(config *Config, translator *Translator, output io.Writer) (*cliOptions, *pflag.FlagSet) {
	opts := &cliOptions{}
	flags := pflag.NewFlagSet(config.Variables["name"], pflag.ContinueOnError)
	flags.SetOutput(output)
	flags.SortFlags = false

	flags.BoolVarP(&opts.generateConf, "generate-conf", "g", false, translator.Get("cli_help_generate_conf"))
	flags.StringVarP(&opts.confDir, "conf-dir", "c", config.ConfDir, translator.Get("cli_help_conf_dir"))
	flags.StringVarP(&opts.logFile, "log-file", "l", config.LogFile, translator.Get("cli_help_log_file"))
	flags.BoolVarP(&opts.nonInteractive, "non-interactive", "n", false, translator.Get("cli_help_non_interactive"))
	flags.StringVarP(&opts.device, "device", "d", "", translator.Get("cli_help_device"))
	flags.BoolVar(&opts.dryRun, "dry-run", false, translator.Get("cli_help_dry_run"))
	flags.StringVar(&opts.lang, "lang", "", translator.Get("cli_help_lang")+" "+languageList(translator))
	flags.BoolVarP(&opts.noRestart, "no-restart", "y", false, translator.Get("cli_help_no_restart"))
	flags.BoolVarP(&opts.help, "help", "h", false, translator.Get("cli_help_help"))

	flags.Usage = func() {
		fmt.Fprintln(output, translator.Get("cli_usage"))
		fmt.Fprintln(output)
		fmt.Fprintln(output, translator.Get("cli_description"))
		fmt.Fprintln(output)
		flags.PrintDefaults()
	}
	return opts, flags
}

// languageList returns the available languages with their display names, e.g.
// "en (English), de (Deutsch)".
func languageList(translator *Translator) string {
	names := translator.GetAll(displayKey)
	languages := translator.GetLanguages()
	list := make([]string, 0, len(languages))
	for _, lang := range languages {
		if name := names[lang]; name != "" {
			list = append(list, fmt.Sprintf("%s (%s)", lang, name))
		} else {
			list = append(list, lang)
		}
	}
	return strings.Join(list, ", ")
}

// absPath expands a leading "~" and makes the path absolute.
func absPath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", err
	}
	return filepath.Abs(expanded)
}

// cliInstall is a single installer run on the terminal, from loading the profile to
// restarting into the new system.
type cliInstall struct {
	ctx        context.Context
	config     *Config
	translator *Translator
	messages   *Messages
	stdout     io.Writer

	runner  exec.Runner
	files   Files
	system  System
	scanner *Scanner
}

func (c *cliInstall) run() error {
	if c.config.DryRun {
		c.runner = exec.NewDryRunner(c.runner, c.stdout)
		c.files = &DryFiles{Root: rootMount, Out: c.stdout}
	}
	c.scanner = NewScanner(c.runner, c.messages)

	packages, profile := LoadConf(c.config.ConfDir, c.config.Distro, c.messages)
	if c.config.Device != "" {
		if err := profile.Set("device", c.config.Device); err != nil {
			return err
		}
	}
	if c.config.NoRestart {
		profile.Restart = false
	}

	if profile.Device == "" {
		device, err := c.scanner.AutoSelectDevice(c.ctx, profile.MinDeviceBytes)
		if err != nil {
			c.messages.Info("%v", err)
		} else {
			profile.Device = device
		}
	}

	if !c.config.NonInteractive {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return ErrTerminal.Wrapf("the interactive mode needs a terminal, use --non-interactive")
		}
		var err error
		profile, err = RunConfigurator(c.ctx, profile, c.translator, c.messages, c.scanner)
		if err != nil {
			return err
		}
	}
	if profile.Device == "" {
		return ErrNoDevice
	}
	if err := c.scanner.ValidateDevice(c.ctx, profile.Device, profile.MinDeviceBytes); err != nil {
		return err
	}
	if err := CheckPrivileges(c.system, c.config.DryRun); err != nil {
		return err
	}

	if err := c.install(profile, packages); err != nil {
		return err
	}

	c.messages.Success("%s", c.translator.Get("msg_complete"))
	c.sep()
	fmt.Fprintln(c.stdout, c.translator.Get("msg_summary"))
	c.messages.ShowAll(c.stdout)

	if profile.Restart {
		c.restart()
	}
	return nil
}

func (c *cliInstall) install(profile *Profile, packages []string) error {
	plan := &Plan{
		Config:     c.config,
		Profile:    profile,
		Packages:   packages,
		Runner:     c.runner,
		Files:      c.files,
		Scanner:    c.scanner,
		System:     c.system,
		Translator: c.translator,
		Messages:   c.messages,
	}
	installer := NewInstaller(plan.Steps(), c.runner, c.messages)
	installer.SetProgressFunction(func(status InstallStatus) {
		if status.Step != nil && status.Err == nil {
			c.section(status.Step.Title)
		}
	})
	installer.StartInstall()

	done := make(chan struct{})
	go func() {
		installer.WaitForDone()
		close(done)
	}()
	select {
	case <-done:
	case <-c.ctx.Done():
		log.Println("Interrupted, rolling back")
		installer.Rollback()
		<-done
		return ErrAborted
	}
	if failed := installer.Failed(); len(failed) > 0 {
		sort.Strings(failed)
		log.Printf("Failed or skipped steps: %s", strings.Join(failed, ", "))
	}
	if err := installer.Error(); err != nil {
		if errors.Is(err, ErrStepFailed) {
			log.Println("Installation failed, rolling back")
			installer.Rollback()
		}
		return err
	}
	return nil
}

// restart counts down and restarts the machine, unless interrupted.
func (c *cliInstall) restart() {
	c.sep()
	fmt.Fprintln(c.stdout, c.translator.GetVar("msg_log_location", StringMap{"logFile": c.config.LogFile}))
	fmt.Fprintln(c.stdout, c.translator.Get("msg_cancel_restart"))
	if !c.config.DryRun && !countdown(c.ctx, c.stdout, c.translator.Get("msg_restarting"), restartTimeout) {
		return
	}
	if err := c.runner.Exec(context.Background(), []string{"shutdown", "-r", "now"}); err != nil {
		c.messages.Error("%v", err)
	}
}

// countdown shows a progress bar filling up over timeout. It returns false if ctx was
// canceled before the time was up.
func countdown(ctx context.Context, out io.Writer, description string, timeout time.Duration) bool {
	seconds := int(timeout / time.Second)
	bar := progressbar.NewOptions(seconds,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
	)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for i := 0; i < seconds; i++ {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return false
		case <-ticker.C:
			_ = bar.Add(1)
		}
	}
	_ = bar.Finish()
	return true
}

func (c *cliInstall) sep() {
	fmt.Fprintln(c.stdout, strings.Repeat("-", terminalWidth(c.stdout)))
}

func (c *cliInstall) section(title string) {
	c.sep()
	fmt.Fprintln(c.stdout, title+"...")
}

// terminalWidth returns the width of the terminal w writes to, or a default if w is not
// a terminal.
func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 0 {
			return cols
		}
	}
	return defaultTermWidth
}

// startLogging points the standard logger at the log file, creating the file if needed.
func startLogging(logFilename string) (*os.File, error) {
	logfile, err := os.OpenFile(logFilename, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	log.SetFlags(log.Ldate | log.Ltime)
	log.SetOutput(logfile)
	return logfile, nil
}
