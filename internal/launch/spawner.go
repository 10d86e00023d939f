// Package launch runs the external helper CLI and classifies its failures.
//
// The concrete process API is kept behind the Spawner port so the queue and
// orchestrator are unit-testable with fakes.
package launch

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"syscall"

	"github.com/charmbracelet/x/ansi"
)

// slugRegexp is the strict pattern every skill-name argument must match.
// Anything else is rejected before a process is spawned, which guards
// against argument or command injection through untrusted skill names.
var slugRegexp = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Completion is the terminal record of one helper CLI run.
type Completion struct {
	// ExitCode is the process exit code, or -1 when the process never ran
	// or was killed by a signal.
	ExitCode int
	// Signal is the name of the terminating signal (e.g. "SIGTERM"),
	// empty when the process exited on its own.
	Signal string
	// Stderr is the captured standard error, ANSI-stripped. When the
	// process could not be spawned at all it holds the spawn error, so
	// callers have one code path for "ran and failed" vs "never ran".
	Stderr string
}

// SpawnOptions configures one helper CLI invocation.
type SpawnOptions struct {
	Dir         string
	OperationID string
	// OnLine receives each ANSI-stripped stdout line as it arrives. Any
	// trailing partial line is flushed on process exit.
	OnLine func(line string)
}

// ProcessHandle tracks one in-flight helper CLI process.
type ProcessHandle interface {
	// Wait blocks until the process reaches a terminal state. It never
	// fails: spawn errors are folded into the Completion.
	Wait() Completion
	// Kill sends a graceful termination signal. It is a no-op if the
	// process already exited.
	Kill()
}

// Spawner launches helper CLI invocations.
type Spawner interface {
	Spawn(args []string, opts SpawnOptions) (ProcessHandle, error)
}

// ExecSpawner is the os/exec-backed Spawner. It invokes the helper as
// `<launcher> <package> <args...>` with stdin closed.
type ExecSpawner struct {
	Launcher string // e.g. "npx"
	Package  string // e.g. "skills-cli"
}

// NewExecSpawner creates an ExecSpawner for the given launcher and package.
func NewExecSpawner(launcher, cliPackage string) *ExecSpawner {
	return &ExecSpawner{Launcher: launcher, Package: cliPackage}
}

// Spawn validates skill-name arguments, then starts the helper process.
// A slug violation fails synchronously and nothing is spawned. A launch
// failure (launcher not on PATH) does NOT fail: it resolves the handle's
// completion with ExitCode -1 and the spawn error in Stderr.
func (s *ExecSpawner) Spawn(args []string, opts SpawnOptions) (ProcessHandle, error) {
	if err := ValidateSkillArgs(args); err != nil {
		return nil, err
	}

	cmd := exec.Command(s.Launcher, append([]string{s.Package}, args...)...)
	cmd.Dir = opts.Dir

	h := &execHandle{cmd: cmd, done: make(chan struct{})}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		h.resolve(Completion{ExitCode: -1, Stderr: err.Error()})
		return h, nil
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		h.resolve(Completion{ExitCode: -1, Stderr: err.Error()})
		return h, nil
	}

	if err := cmd.Start(); err != nil {
		h.resolve(Completion{ExitCode: -1, Stderr: err.Error()})
		return h, nil
	}
	h.started = true

	var wg sync.WaitGroup
	var stderrBuf bytes.Buffer

	wg.Add(2)
	go func() {
		defer wg.Done()
		readLines(stdout, func(line string) {
			if opts.OnLine != nil {
				opts.OnLine(ansi.Strip(line))
			}
		})
	}()
	go func() {
		defer wg.Done()
		readLines(stderr, func(line string) {
			stderrBuf.WriteString(ansi.Strip(line))
			stderrBuf.WriteByte('\n')
		})
	}()

	go func() {
		wg.Wait()
		waitErr := cmd.Wait()
		h.resolve(buildCompletion(waitErr, stderrBuf.String()))
	}()

	return h, nil
}

// readLines delivers each line of r to fn with the trailing newline
// stripped. Lines have no length limit, and the pipe is always drained to
// EOF: a reader that stops early would leave the child blocked writing to a
// full pipe and Wait would never return. A trailing unterminated line is
// flushed.
func readLines(r io.Reader, fn func(line string)) {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			fn(strings.TrimRight(line, "\r\n"))
		}
		if err != nil {
			if err != io.EOF {
				_, _ = io.Copy(io.Discard, br)
			}
			return
		}
	}
}

// ValidateSkillArgs checks every value of a `-s` flag group against the
// skill slug pattern.
func ValidateSkillArgs(args []string) error {
	inSkills := false
	for _, arg := range args {
		switch {
		case arg == "-s":
			inSkills = true
		case strings.HasPrefix(arg, "-"):
			inSkills = false
		case inSkills:
			if !slugRegexp.MatchString(arg) {
				return fmt.Errorf("invalid skill name %q: must be lowercase alphanumeric with hyphens", arg)
			}
		}
	}
	return nil
}

// execHandle implements ProcessHandle over an exec.Cmd.
type execHandle struct {
	cmd     *exec.Cmd
	started bool

	mu         sync.Mutex
	resolved   bool
	completion Completion
	done       chan struct{}
}

func (h *execHandle) Wait() Completion {
	<-h.done
	return h.completion
}

func (h *execHandle) Kill() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.resolved || !h.started || h.cmd.Process == nil {
		return
	}
	_ = h.cmd.Process.Signal(syscall.SIGTERM)
}

func (h *execHandle) resolve(c Completion) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.resolved {
		return
	}
	h.resolved = true
	h.completion = c
	close(h.done)
}

// buildCompletion translates an exec.Cmd wait result into a Completion.
func buildCompletion(waitErr error, stderr string) Completion {
	c := Completion{ExitCode: 0, Stderr: stderr}
	if waitErr == nil {
		return c
	}

	exitErr, ok := waitErr.(*exec.ExitError)
	if !ok {
		// I/O failure while waiting; the process state is unknown.
		c.ExitCode = -1
		if c.Stderr == "" {
			c.Stderr = waitErr.Error()
		}
		return c
	}

	c.ExitCode = exitErr.ExitCode()
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		c.ExitCode = -1
		c.Signal = signalName(ws.Signal())
	}
	return c
}

// signalName maps a syscall signal to its conventional name.
func signalName(sig syscall.Signal) string {
	switch sig {
	case syscall.SIGTERM:
		return "SIGTERM"
	case syscall.SIGKILL:
		return "SIGKILL"
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGHUP:
		return "SIGHUP"
	case syscall.SIGQUIT:
		return "SIGQUIT"
	default:
		return fmt.Sprintf("SIG%d", int(sig))
	}
}
