package docsafe

import (
	"context"
	"io"

	"github.com/smnsjas/go-docsafe/container"
	"github.com/smnsjas/go-docsafe/document"
)

// RendererProc is one running renderer seen from the host side.
type RendererProc interface {
	// Input is the renderer's stdin. The document bytes go here, then
	// the writer is closed.
	Input() io.WriteCloser
	// Output is the renderer's stdout carrying the pixel stream.
	Output() io.Reader
	// Wait blocks until the renderer exits or ctx is done. Safe to
	// call repeatedly; the result settles once.
	Wait(ctx context.Context) error
	// Stop terminates the renderer, best effort and bounded.
	Stop()
	// Stderr returns the renderer's sanitized diagnostics. Complete
	// only after Wait has returned.
	Stderr() string
}

// Provider starts renderer processes for documents.
type Provider interface {
	// Name identifies the provider in logs and errors.
	Name() string
	// Start launches one renderer for the document.
	Start(ctx context.Context, doc *document.Document) (RendererProc, error)
	// MaxParallel is how many conversions may run at once.
	MaxParallel() int
}

// containerNamePrefix makes renderer instances recognizable in the
// runtime's process list.
const containerNamePrefix = "docsafe-doc-to-pixels-"

type containerProvider struct {
	runner *container.Runner
}

// NewContainerProvider runs renderers in hardened containers through
// the given Runner. Instances are named after the document ID so a
// stuck conversion can be found with podman ps or docker ps.
func NewContainerProvider(r *container.Runner) Provider {
	return &containerProvider{runner: r}
}

func (p *containerProvider) Name() string {
	return p.runner.Runtime().String()
}

func (p *containerProvider) Start(ctx context.Context, doc *document.Document) (RendererProc, error) {
	proc, err := p.runner.Start(ctx, containerNamePrefix+doc.ID())
	if err != nil {
		return nil, err
	}
	return proc, nil
}

// MaxParallel is 1 for containers: renderers are resource-hungry and
// running them side by side starves the host.
func (p *containerProvider) MaxParallel() int { return 1 }
