package container

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// DefaultImage is the renderer image used when no other is configured.
const DefaultImage = "localhost/docsafe/renderer"

// DefaultCommand is the renderer entrypoint inside the image.
const DefaultCommand = "/usr/local/bin/doc-to-pixels"

// imageUser is the unprivileged account the renderer runs as inside the
// image.
const imageUser = "docsafe"

const (
	// ExceptionTimeout bounds how long to wait for an exit code after
	// the pixel stream failed mid-read.
	ExceptionTimeout = 15 * time.Second
	// GraceTimeout bounds the wait for a renderer to exit after it has
	// been asked to stop.
	GraceTimeout = 15 * time.Second
	// ForceTimeout bounds the wait after the renderer has been killed
	// forcefully.
	ForceTimeout = 5 * time.Second
	// KillTimeout bounds the runtime's own kill command, which has been
	// seen to hang on specific inputs.
	KillTimeout = 5 * time.Second
)

var (
	// ErrNoRuntime is returned when neither podman nor docker is on PATH.
	ErrNoRuntime = errors.New("no supported container runtime found")
	// ErrUnknownRuntime is returned when a runtime name cannot be parsed.
	ErrUnknownRuntime = errors.New("unknown container runtime")
)

// Runtime identifies the container runtime used to spawn renderers.
type Runtime int

const (
	// RuntimePodman runs renderers through podman.
	RuntimePodman Runtime = iota
	// RuntimeDocker runs renderers through docker.
	RuntimeDocker
)

func (r Runtime) String() string {
	switch r {
	case RuntimePodman:
		return "podman"
	case RuntimeDocker:
		return "docker"
	default:
		return fmt.Sprintf("Unknown(%d)", int(r))
	}
}

// ParseRuntime maps a runtime name, as given on a command line, to a
// Runtime value.
func ParseRuntime(name string) (Runtime, error) {
	switch name {
	case "podman":
		return RuntimePodman, nil
	case "docker":
		return RuntimeDocker, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRuntime, name)
	}
}

// DetectRuntime probes PATH for a supported runtime, preferring podman.
func DetectRuntime() (Runtime, error) {
	if _, err := exec.LookPath("podman"); err == nil {
		return RuntimePodman, nil
	}
	if _, err := exec.LookPath("docker"); err == nil {
		return RuntimeDocker, nil
	}
	return 0, ErrNoRuntime
}

// Runner spawns hardened renderer containers. Configure it once, then
// Start one container per document.
type Runner struct {
	runtime        Runtime
	runtimeSet     bool
	image          string
	command        []string
	debug          bool
	seccompProfile string
}

// Option configures a Runner.
type Option func(*Runner)

// WithRuntime pins the container runtime instead of autodetecting.
func WithRuntime(rt Runtime) Option {
	return func(r *Runner) {
		r.runtime = rt
		r.runtimeSet = true
	}
}

// WithImage overrides the renderer image.
func WithImage(image string) Option {
	return func(r *Runner) {
		r.image = image
	}
}

// WithCommand overrides the renderer entrypoint and arguments.
func WithCommand(command ...string) Option {
	return func(r *Runner) {
		r.command = command
	}
}

// WithDebug passes RUNSC_DEBUG=1 into the container so the renderer's
// sandbox layer logs verbosely to stderr.
func WithDebug(debug bool) Option {
	return func(r *Runner) {
		r.debug = debug
	}
}

// WithSeccompProfile adds a custom seccomp policy file. Some runtimes
// forbid syscalls the renderer's sandbox needs (ptrace), so deployments
// ship their own policy.
func WithSeccompProfile(path string) Option {
	return func(r *Runner) {
		r.seccompProfile = path
	}
}

// NewRunner builds a Runner, autodetecting the runtime unless one was
// pinned with WithRuntime.
func NewRunner(opts ...Option) (*Runner, error) {
	r := &Runner{
		image:   DefaultImage,
		command: []string{DefaultCommand},
	}
	for _, opt := range opts {
		opt(r)
	}
	if !r.runtimeSet {
		rt, err := DetectRuntime()
		if err != nil {
			return nil, err
		}
		r.runtime = rt
	}
	return r, nil
}

// Runtime returns the runtime the Runner spawns containers with.
func (r *Runner) Runtime() Runtime {
	return r.runtime
}

// Image returns the configured renderer image.
func (r *Runner) Image() string {
	return r.image
}

// Start spawns one renderer container under the given instance name and
// returns its standard streams. The context covers the whole lifetime
// of the container process.
func (r *Runner) Start(ctx context.Context, name string) (*Proc, error) {
	return startProc(ctx, r.runtime, r.runtime.String(), r.args(name), name)
}

// args assembles the full run invocation in the fixed order: security
// arguments, debug arguments, leak prevention, stdio, name, image,
// renderer command.
func (r *Runner) args(name string) []string {
	args := []string{"run"}
	args = append(args, r.securityArgs()...)
	if r.debug {
		args = append(args, "-e", "RUNSC_DEBUG=1")
	}
	args = append(args, "--rm")
	args = append(args, "-i")
	args = append(args, "--name", name)
	args = append(args, r.image)
	args = append(args, r.command...)
	return args
}

// securityArgs returns the hardening options for the configured runtime:
// no new privileges, all capabilities dropped except SYS_CHROOT, the
// SELinux label that lets the renderer's sandbox work on enforcing
// systems, no network, an unprivileged in-image user, and for podman no
// output logging and no host user mapping.
func (r *Runner) securityArgs() []string {
	var args []string
	if r.runtime == RuntimePodman {
		args = append(args, "--log-driver", "none")
		args = append(args, "--security-opt", "no-new-privileges")
		args = append(args, "--userns", "nomap")
	} else {
		args = append(args, "--security-opt=no-new-privileges:true")
	}
	if r.seccompProfile != "" {
		args = append(args, "--security-opt", "seccomp="+r.seccompProfile)
	}
	args = append(args, "--cap-drop", "all")
	args = append(args, "--cap-add", "SYS_CHROOT")
	args = append(args, "--security-opt", "label=type:container_engine_t")
	args = append(args, "--network=none")
	args = append(args, "-u", imageUser)
	return args
}
