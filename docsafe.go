package docsafe

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/smnsjas/go-docsafe/document"
	"github.com/smnsjas/go-docsafe/safepdf"
)

// ErrDuplicateDocument is returned by Add when a document's input file
// is already registered.
var ErrDuplicateDocument = errors.New("a document was added twice")

// Core holds the shared state of a conversion run: the registered
// documents and the Provider that supplies renderer processes for them.
type Core struct {
	provider Provider
	dpi      float64
	progress ProgressFunc

	mu   sync.Mutex
	docs []*document.Document
	seen map[string]struct{}
}

// Option configures a Core.
type Option func(*Core)

// WithDPI sets the resolution the renderer rasterizes at, which decides
// the physical page sizes of the reconstructed PDFs.
func WithDPI(dpi float64) Option {
	return func(c *Core) {
		c.dpi = dpi
	}
}

// WithProgress registers a callback for conversion status events.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Core) {
		c.progress = fn
	}
}

// New creates a Core converting through the given provider.
func New(p Provider, opts ...Option) *Core {
	c := &Core{
		provider: p,
		dpi:      safepdf.DefaultDPI,
		seen:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add registers a document for conversion. The same input file cannot
// be added twice, not even through a different relative path.
func (c *Core) Add(doc *document.Document) error {
	key, err := filepath.Abs(doc.InputFilename())
	if err != nil {
		return fmt.Errorf("resolve %s: %w", doc.InputFilename(), err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.seen[key]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateDocument, doc.InputFilename())
	}
	c.seen[key] = struct{}{}
	c.docs = append(c.docs, doc)
	return nil
}

// Documents returns the registered documents in insertion order.
func (c *Core) Documents() []*document.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*document.Document, len(c.docs))
	copy(out, c.docs)
	return out
}

// UnconvertedDocuments returns the documents no conversion has touched.
func (c *Core) UnconvertedDocuments() []*document.Document {
	return c.documentsIn(document.StateUnconverted)
}

// SafeDocuments returns the documents converted successfully.
func (c *Core) SafeDocuments() []*document.Document {
	return c.documentsIn(document.StateSafe)
}

// FailedDocuments returns the documents whose conversion failed.
func (c *Core) FailedDocuments() []*document.Document {
	return c.documentsIn(document.StateFailed)
}

func (c *Core) documentsIn(state document.State) []*document.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*document.Document
	for _, doc := range c.docs {
		if doc.State() == state {
			out = append(out, doc)
		}
	}
	return out
}

// ConvertAll converts every unconverted document, running at most
// Provider.MaxParallel conversions at a time. Failures are recorded on
// the documents themselves and also returned, joined, one per failed
// document.
func (c *Core) ConvertAll(ctx context.Context) error {
	docs := c.UnconvertedDocuments()
	if len(docs) == 0 {
		return nil
	}

	workers := c.provider.MaxParallel()
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	errs := make([]error, len(docs))

	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				errs[i] = fmt.Errorf("doc %s: %w", doc.ID(), err)
				return
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				errs[i] = fmt.Errorf("doc %s: %w", doc.ID(), ctx.Err())
				return
			}
			defer func() { <-sem }()

			if err := c.Convert(ctx, doc); err != nil {
				errs[i] = fmt.Errorf("doc %s: %w", doc.ID(), err)
			}
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}

func (c *Core) emit(doc *document.Document, isErr bool, text string, percentage float64) {
	log := Logger()
	if isErr {
		log.Error(text, "doc", doc.ID())
	} else {
		log.Info(text, "doc", doc.ID(), "percent", int(percentage))
	}
	if c.progress != nil {
		c.progress(Progress{
			DocID:      doc.ID(),
			Error:      isErr,
			Text:       text,
			Percentage: percentage,
		})
	}
}
