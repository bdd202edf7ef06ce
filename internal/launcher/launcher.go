package launcher

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/briandowns/spinner"

	"github.com/project-odysseus/odyctl/internal/logger"
)

// DefaultGracePeriod is how long started services get to settle before the
// health verifier runs.
const DefaultGracePeriod = 15 * time.Second

// State is the launcher's lifecycle state for one Start call.
type State int

const (
	StateNotStarted State = iota
	StateStarting
	StateStarted
	StateStartFailed
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateStarted:
		return "started"
	case StateStartFailed:
		return "start-failed"
	default:
		return "not-started"
	}
}

// StartResult reports one launch attempt. A failed launch carries the full
// per-service status table; the operator decides what to do next.
type StartResult struct {
	Profile     Profile
	State       State
	Services    []string
	Err         string // launch error, when State == StateStartFailed
	StatusTable string // compose ps output, when the launch failed
}

// Launcher starts compose service profiles. Compose itself owns container
// lifecycle; the launcher only sequences and reports.
type Launcher struct {
	runner      Runner
	composeFile string
	grace       time.Duration
	showSpinner bool
	log         logger.Logger
}

func New(runner Runner, composeFile string, log logger.Logger) *Launcher {
	return &Launcher{
		runner:      runner,
		composeFile: composeFile,
		grace:       DefaultGracePeriod,
		showSpinner: true,
		log:         log,
	}
}

// WithGrace overrides the post-launch grace period (tests use zero).
func (l *Launcher) WithGrace(d time.Duration) *Launcher {
	l.grace = d
	return l
}

// WithSpinner toggles the wait indicator.
func (l *Launcher) WithSpinner(on bool) *Launcher {
	l.showSpinner = on
	return l
}

// Start brings up the profile's service set, then waits out the grace
// period. Launch failure is reported in the result, not as an error: the
// pipeline marks the run failed but keeps the process alive.
func (l *Launcher) Start(ctx context.Context, profile Profile) (*StartResult, error) {
	services := profile.Services()
	if err := ValidatePorts(services); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(services))
	for _, svc := range services {
		names = append(names, svc.Name)
	}

	result := &StartResult{Profile: profile, State: StateStarting, Services: names}
	l.log.Info("starting services",
		logger.String("profile", string(profile)),
		logger.Strings("services", names))

	args := l.composeArgs(profile)
	args = append(args, "up", "-d")
	args = append(args, names...)

	if out, err := l.runner.Run(ctx, "docker", args...); err != nil {
		result.State = StateStartFailed
		result.Err = fmt.Sprintf("%v\n%s", err, out)
		result.StatusTable = l.statusTable(ctx, profile)
		l.log.Error("service launch failed",
			logger.String("profile", string(profile)),
			logger.Error(err))
		return result, nil
	}

	l.waitGrace()
	result.State = StateStarted
	return result, nil
}

// Logs tails one service's logs (or all when service is empty).
func (l *Launcher) Logs(ctx context.Context, service string, tail int) error {
	args := append(l.composeArgs(""), "logs", "--tail", strconv.Itoa(tail), "-f")
	if service != "" {
		args = append(args, service)
	}
	return l.runner.Stream(ctx, "docker", args...)
}

// StartFeature brings up a single feature profile (ex: monitoring) without
// touching the named service set.
func (l *Launcher) StartFeature(ctx context.Context, feature string) error {
	args := []string{"compose", "-f", l.composeFile, "--profile", feature, "up", "-d"}
	if out, err := l.runner.Run(ctx, "docker", args...); err != nil {
		return fmt.Errorf("failed to start %s profile: %w\n%s", feature, err, out)
	}
	l.log.Info("feature profile started", logger.String("profile", feature))
	return nil
}

func (l *Launcher) composeArgs(profile Profile) []string {
	args := []string{"compose", "-f", l.composeFile}
	for _, feature := range profile.FeatureProfiles() {
		args = append(args, "--profile", feature)
	}
	return args
}

func (l *Launcher) statusTable(ctx context.Context, profile Profile) string {
	out, err := l.runner.Run(ctx, "docker", append(l.composeArgs(profile), "ps", "-a")...)
	if err != nil {
		return fmt.Sprintf("(status unavailable: %v)", err)
	}
	return out
}

func (l *Launcher) waitGrace() {
	if l.grace <= 0 {
		return
	}
	l.log.Info("waiting for services to settle",
		logger.Duration("grace", l.grace))
	if l.showSpinner {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		s.Suffix = fmt.Sprintf(" waiting %s for services to settle...", l.grace)
		s.Start()
		time.Sleep(l.grace)
		s.Stop()
		return
	}
	time.Sleep(l.grace)
}
