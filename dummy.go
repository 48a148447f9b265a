package docsafe

import (
	"bytes"
	"context"
	"io"
	"runtime"

	"github.com/smnsjas/go-docsafe/document"
	"github.com/smnsjas/go-docsafe/pixels"
)

// Dummy renderer output: two tiny solid pages.
const (
	dummyPages  = 2
	dummyWidth  = 9
	dummyHeight = 9
	dummyFill   = 'A'
)

type dummyProvider struct{}

// NewDummyProvider returns a provider with no isolation at all: the
// input is discarded and every document converts into the same two
// 9x9 pages. It exists so the full pipeline can run in tests and demos
// without a container runtime. Never use it on real documents.
func NewDummyProvider() Provider {
	return dummyProvider{}
}

func (dummyProvider) Name() string { return "dummy" }

// MaxParallel reports one conversion per CPU; dummy renderers are
// cheap, and this exercises the worker pool.
func (dummyProvider) MaxParallel() int { return runtime.NumCPU() }

func (dummyProvider) Start(ctx context.Context, doc *document.Document) (RendererProc, error) {
	pix := bytes.Repeat([]byte{dummyFill}, dummyWidth*dummyHeight*pixels.BytesPerPixel)
	page, err := pixels.NewPage(dummyWidth, dummyHeight, pix)
	if err != nil {
		return nil, err
	}

	pages := make([]pixels.Page, dummyPages)
	for i := range pages {
		pages[i] = page
	}
	var stream bytes.Buffer
	w := pixels.NewStreamWriter(&stream)
	if err := w.WriteAll(pages); err != nil {
		return nil, err
	}
	return &dummyProc{output: bytes.NewReader(stream.Bytes())}, nil
}

// dummyProc serves a pre-rendered stream and swallows its input.
type dummyProc struct {
	output *bytes.Reader
}

func (p *dummyProc) Input() io.WriteCloser          { return nopWriteCloser{io.Discard} }
func (p *dummyProc) Output() io.Reader              { return p.output }
func (p *dummyProc) Wait(ctx context.Context) error { return nil }
func (p *dummyProc) Stop()                          {}
func (p *dummyProc) Stderr() string                 { return "" }

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
