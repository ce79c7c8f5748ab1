package auto_install

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/grandchild/auto_install/exec"
)

type (
	// InstallStatus is a message struct that gets passed around at various times in the
	// installation process. All fields are optional: the step that is about to run or
	// has just failed, whether the installer as a whole is finished or not, or whether
	// it's been aborted and rolled back.
	InstallStatus struct {
		Step    *Step
		Index   int
		Total   int
		Err     error
		Done    bool
		Aborted bool
	}
	// Installer runs a list of steps in the background. It reports its progress through
	// a status channel and a progress callback, and can be aborted and rolled back.
	Installer struct {
		Done             bool
		steps            []Step
		completed        int
		failed           map[string]bool
		err              error
		runner           exec.Runner
		messages         *Messages
		statusChannel    chan InstallStatus
		ctx              context.Context
		cancel           context.CancelFunc
		started          sync.Once
		finished         chan struct{}
		actionLock       sync.Mutex
		progressFunction func(InstallStatus)
	}
)

// NewInstaller creates an Installer for the given steps. Commands needed for rollback
// are run through runner, failures of non-critical steps are reported to messages.
//
//	installer := NewInstaller(plan.Steps(), runner, messages)
//	installer.StartInstall()
//	installer.WaitForDone()
//	if err := installer.Error(); err != nil {
//		/* ... */
//	}
func NewInstaller(steps []Step, runner exec.Runner, messages *Messages) *Installer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Installer{
		steps:            steps,
		failed:           make(map[string]bool),
		runner:           runner,
		messages:         messages,
		statusChannel:    make(chan InstallStatus, 1),
		ctx:              ctx,
		cancel:           cancel,
		finished:         make(chan struct{}),
		progressFunction: func(status InstallStatus) {},
	}
}

// StartInstall runs the installer in a separate goroutine and returns immediately. Use
// Status() or SetProgressFunction() to get updates about the progress.
func (i *Installer) StartInstall() {
	i.started.Do(func() {
		go func() {
			defer close(i.finished)
			i.install()
		}()
	})
}

// install runs the steps in order.
func (i *Installer) install() {
	i.actionLock.Lock()
	defer i.actionLock.Unlock()
	i.Done = false
	for n := range i.steps {
		step := &i.steps[n]
		if i.ctx.Err() != nil {
			i.err = ErrAborted
			i.setStatus(InstallStatus{Done: true, Aborted: true, Err: i.err})
			return
		}
		if missing := i.missingRequirement(step); missing != "" {
			log.Printf("Skipping '%s', '%s' did not succeed", step.Title, missing)
			i.failed[step.Name] = true
			i.completed++
			continue
		}
		status := InstallStatus{Step: step, Index: n, Total: len(i.steps)}
		i.setStatus(status)
		i.progressFunction(status)
		log.Printf("Step %d/%d: %s", n+1, len(i.steps), step.Title)

		if err := step.Run(i.ctx); err != nil {
			i.failed[step.Name] = true
			if i.ctx.Err() != nil {
				i.err = ErrAborted
				i.setStatus(InstallStatus{Done: true, Aborted: true, Err: i.err})
				return
			}
			if step.Critical {
				i.err = ErrStepFailed.Wrapf("%s: %w", step.Title, err)
				i.messages.Error("%s failed: %v", step.Title, err)
				status := InstallStatus{Step: step, Index: n, Total: len(i.steps), Err: i.err, Done: true}
				i.progressFunction(status)
				i.setStatus(status)
				return
			}
			// continue even if this fails
			i.messages.Error("%s failed: %v", step.Title, err)
		}
		i.completed++
	}
	i.Done = true
	i.setStatus(InstallStatus{Done: true})
}

func (i *Installer) missingRequirement(step *Step) string {
	for _, name := range step.Requires {
		if i.failed[name] {
			return name
		}
	}
	return ""
}

// Abort stops the installer. The step that is currently running has its context
// canceled, so running commands are killed. Abort returns once the installer has
// stopped.
//
// Use Rollback() instead of Abort() if the target should be unmounted as well.
func (i *Installer) Abort() {
	i.cancel()
	i.started.Do(func() { close(i.finished) })
	<-i.finished
}

// Rollback aborts the installer and unmounts everything below the target mount, so
// the device is left in a state where the installation can be started over.
//
// Rollback implicitly calls Abort().
func (i *Installer) Rollback() {
	i.Abort()
	i.actionLock.Lock()
	defer i.actionLock.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := i.runner.Exec(ctx, []string{"umount", "--recursive", rootMount}); err != nil {
		log.Printf("Error unmounting %s: %v", rootMount, err)
	}
	i.Done = true
	i.setStatus(InstallStatus{Done: true, Aborted: true})
}

// setStatus is a non-blocking write to the status channel. If no-one is listening
// through Status() then it will simply do nothing and return.
func (i *Installer) setStatus(status InstallStatus) {
	select {
	case i.statusChannel <- status:
	case <-time.After(1 * time.Second):
	}
}

// Status returns the current installer status as an InstallStatus object.
func (i *Installer) Status() InstallStatus {
	select {
	case status := <-i.statusChannel:
		return status
	case <-time.After(1 * time.Second):
		return InstallStatus{}
	}
}

func (i *Installer) SetProgressFunction(function func(InstallStatus)) {
	i.progressFunction = function
}

// Progress returns the ratio between finished and all steps. The result is a float
// between 0.0 and 1.0, inclusive.
func (i *Installer) Progress() float64 {
	if len(i.steps) == 0 {
		return 1
	}
	return float64(i.completed) / float64(len(i.steps))
}

// Failed returns the names of the steps that failed or were skipped.
func (i *Installer) Failed() []string {
	names := make([]string, 0, len(i.failed))
	for _, step := range i.steps {
		if i.failed[step.Name] {
			names = append(names, step.Name)
		}
	}
	return names
}

// Error returns the reason the installation stopped, or nil if it completed.
func (i *Installer) Error() error { return i.err }

// WaitForDone returns only after the installer has finished installing (or undoing).
func (i *Installer) WaitForDone() {
	for {
		select {
		case status := <-i.statusChannel:
			if status.Done {
				return
			}
		case <-i.finished:
			return
		}
	}
}

// CheckPrivileges returns ErrNotRoot unless the installer runs as root. Dry runs don't
// change the system and are allowed for everyone.
func CheckPrivileges(system System, dryRun bool) error {
	if dryRun || system.IsRoot() {
		return nil
	}
	return ErrNotRoot
}
