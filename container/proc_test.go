package container

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func requireTool(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available", name)
	}
}

// startProc is exercised with plain host binaries so the tests run
// without a container runtime installed.

func TestProcEcho(t *testing.T) {
	requireTool(t, "cat")

	p, err := startProc(context.Background(), RuntimePodman, "cat", nil, "echo-test")
	if err != nil {
		t.Fatalf("startProc() error = %v", err)
	}

	payload := []byte("untrusted document bytes")
	go func() {
		_, _ = p.Input().Write(payload)
		_ = p.Input().Close()
	}()

	got, err := io.ReadAll(p.Output())
	if err != nil {
		t.Fatalf("ReadAll(Output()) error = %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("Output = %q, want %q", got, payload)
	}

	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	// A second Wait must return the same settled result.
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() again error = %v", err)
	}

	if got := p.Name(); got != "echo-test" {
		t.Errorf("Name() = %q, want %q", got, "echo-test")
	}
	if got := p.Stderr(); got != "" {
		t.Errorf("Stderr() = %q, want empty", got)
	}
}

func TestProcStderrCaptured(t *testing.T) {
	requireTool(t, "sh")

	p, err := startProc(context.Background(), RuntimePodman,
		"sh", []string{"-c", `printf 'renderer says\033[31m hi\n' >&2`}, "stderr-test")
	if err != nil {
		t.Fatalf("startProc() error = %v", err)
	}
	_ = p.Input().Close()
	if _, err := io.ReadAll(p.Output()); err != nil {
		t.Fatalf("ReadAll(Output()) error = %v", err)
	}
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	want := "renderer says�[31m hi\n"
	if got := p.Stderr(); got != want {
		t.Errorf("Stderr() = %q, want %q", got, want)
	}
}

func TestProcExitCode(t *testing.T) {
	requireTool(t, "sh")

	p, err := startProc(context.Background(), RuntimePodman,
		"sh", []string{"-c", "exit 41"}, "exit-test")
	if err != nil {
		t.Fatalf("startProc() error = %v", err)
	}
	_ = p.Input().Close()
	if _, err := io.ReadAll(p.Output()); err != nil {
		t.Fatalf("ReadAll(Output()) error = %v", err)
	}

	waitErr := p.Wait(context.Background())
	if waitErr == nil {
		t.Fatal("Wait() = nil, want exit error")
	}

	var rerr *RendererError
	if err := ExitCodeError(waitErr); !errors.As(err, &rerr) {
		t.Fatalf("ExitCodeError() = %v, want *RendererError", err)
	}
	if rerr.Code != CodeNoPageCount {
		t.Errorf("Code = %d, want %d", rerr.Code, CodeNoPageCount)
	}
}

func TestProcWaitHonorsContext(t *testing.T) {
	requireTool(t, "cat")

	// cat with stdin held open never exits on its own.
	p, err := startProc(context.Background(), RuntimePodman, "cat", nil, "hang-test")
	if err != nil {
		t.Fatalf("startProc() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := p.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait() error = %v, want DeadlineExceeded", err)
	}

	p.Stop()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), GraceTimeout)
	defer waitCancel()
	if err := p.Wait(waitCtx); err == nil {
		t.Fatal("Wait() after Stop() = nil, want kill error")
	} else if !strings.Contains(err.Error(), "killed") {
		t.Logf("Wait() after Stop() = %v", err)
	}
}
