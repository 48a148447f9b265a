package container

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// Proc is one running renderer container. Its stdin carries the
// untrusted document, its stdout the pixel stream, and its stderr is
// captured in memory for diagnostics.
type Proc struct {
	runtime Runtime
	name    string
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  io.ReadCloser
	stderr  bytes.Buffer

	waitOnce sync.Once
	waitErr  error
	done     chan struct{}
}

// startProc launches path with args and wires up the standard streams.
// Cancelling ctx kills the process; WaitDelay keeps Wait from hanging
// on pipes a grandchild may still hold open.
func startProc(ctx context.Context, rt Runtime, path string, args []string, name string) (*Proc, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.WaitDelay = ForceTimeout

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	p := &Proc{
		runtime: rt,
		name:    name,
		cmd:     cmd,
		stdin:   stdin,
		stdout:  stdout,
		done:    make(chan struct{}),
	}
	cmd.Stderr = &p.stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", path, err)
	}
	return p, nil
}

// Input is the renderer's stdin. Close it once the document bytes have
// been written so the renderer knows the input is complete.
func (p *Proc) Input() io.WriteCloser { return p.stdin }

// Output is the renderer's stdout carrying the pixel stream.
func (p *Proc) Output() io.Reader { return p.stdout }

// Name returns the container instance name the renderer runs under.
func (p *Proc) Name() string { return p.name }

// Stderr returns everything the renderer wrote to stderr, sanitized for
// terminal output. The result is only complete after Wait has returned.
func (p *Proc) Stderr() string {
	return SanitizeLog(p.stderr.Bytes())
}

// Wait blocks until the renderer exits or ctx is done. The underlying
// process wait happens exactly once; repeated calls return the same
// result. Do not call Wait while pixel data is still pending on Output,
// as the wait tears down the stdout pipe.
func (p *Proc) Wait(ctx context.Context) error {
	p.waitOnce.Do(func() {
		go func() {
			p.waitErr = p.cmd.Wait()
			close(p.done)
		}()
	})
	select {
	case <-p.done:
		return p.waitErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop terminates the renderer. The container is killed by name through
// the runtime first: with a daemon-based runtime the spawned process is
// only a client, and killing it alone leaves the container running. The
// local process is killed afterwards in any case. The runtime's kill
// command has been seen to hang on specific documents, so it gets a
// bounded wait and its outcome is ignored.
func (p *Proc) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), KillTimeout)
	defer cancel()
	kill := exec.CommandContext(ctx, p.runtime.String(), "kill", p.name)
	kill.Stdout = io.Discard
	kill.Stderr = io.Discard
	_ = kill.Run()

	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
}
