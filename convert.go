package docsafe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/smnsjas/go-docsafe/container"
	"github.com/smnsjas/go-docsafe/document"
	"github.com/smnsjas/go-docsafe/pixels"
	"github.com/smnsjas/go-docsafe/safepdf"
)

const successText = "Successfully converted document"

// Convert runs one document through a renderer and writes the safe PDF
// to the document's output filename. It is synchronous; use ConvertAll
// to run several documents in parallel.
func (c *Core) Convert(ctx context.Context, doc *document.Document) error {
	if err := doc.MarkConverting(); err != nil {
		return err
	}
	if err := c.convert(ctx, doc); err != nil {
		c.emit(doc, true, err.Error(), 0)
		_ = doc.MarkFailed()
		return err
	}
	c.emit(doc, false, successText, 100)
	return doc.MarkSafe()
}

func (c *Core) convert(ctx context.Context, doc *document.Document) error {
	c.emit(doc, false, "Converting document to pixels", 0)

	data, err := os.ReadFile(doc.InputFilename())
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	proc, err := c.provider.Start(ctx, doc)
	if err != nil {
		return fmt.Errorf("start renderer: %w", err)
	}
	exited := false
	defer func() {
		if !exited {
			stopRenderer(proc)
		}
		c.logRendererOutput(ctx, proc)
	}()

	// Feed the renderer from a goroutine so one that streams pixels
	// before it has consumed all its input cannot deadlock the read
	// loop. A failed write surfaces as a broken stream below.
	go func() {
		in := proc.Input()
		_, _ = in.Write(data)
		_ = in.Close()
	}()

	sr := pixels.NewStreamReader(proc.Output())
	count, err := sr.ReadPageCount()
	if err != nil {
		return diagnose(ctx, proc, err)
	}

	pages := make([]pixels.Page, 0, count)
	step := 100.0 / float64(count)
	percentage := 0.0
	for i := 1; i <= int(count); i++ {
		text := fmt.Sprintf("Converting page %d/%d from pixels to PDF", i, count)
		c.emit(doc, false, text, percentage)

		page, err := sr.ReadPage()
		if err != nil {
			return diagnose(ctx, proc, err)
		}
		pages = append(pages, page)
		percentage += step
	}

	// The stream is complete; the renderer must now exit cleanly.
	if err := awaitExit(ctx, proc); err != nil {
		return err
	}
	exited = true

	pdf, err := safepdf.NewReconstructorWithDPI(c.dpi).Reconstruct(pages)
	if err != nil {
		return err
	}
	return atomicWrite(doc.OutputFilename(), doc.ID(), pdf)
}

// diagnose maps a broken pixel stream to the most useful error: the
// renderer's exit code when one is available, otherwise the stream
// error itself.
func diagnose(ctx context.Context, proc RendererProc, streamErr error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	waitCtx, cancel := context.WithTimeout(ctx, container.ExceptionTimeout)
	defer cancel()

	switch err := proc.Wait(waitCtx); {
	case err == nil:
		// Exited cleanly yet broke the protocol.
		return streamErr
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w, and the renderer is still running after %v",
			streamErr, container.ExceptionTimeout)
	default:
		return container.ExitCodeError(err)
	}
}

// awaitExit requires a clean exit once the declared pages have all
// arrived. A renderer that lingers with its work done gets killed by
// the deferred stop, and the conversion fails.
func awaitExit(ctx context.Context, proc RendererProc) error {
	waitCtx, cancel := context.WithTimeout(ctx, container.GraceTimeout)
	defer cancel()

	switch err := proc.Wait(waitCtx); {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("renderer did not exit after the last page: %w", err)
	default:
		return container.ExitCodeError(err)
	}
}

// stopRenderer makes sure a renderer is gone, with a bounded reap.
func stopRenderer(proc RendererProc) {
	proc.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), container.ForceTimeout)
	defer cancel()
	if err := proc.Wait(ctx); errors.Is(err, context.DeadlineExceeded) {
		Logger().Warn("renderer still running after forced kill, resources may linger")
	}
}

// logRendererOutput logs the renderer's sanitized stderr between
// markers. Only active at debug level.
func (c *Core) logRendererOutput(ctx context.Context, proc RendererProc) {
	log := Logger()
	if !log.Enabled(ctx, slog.LevelDebug) {
		return
	}
	log.Debug("conversion output (doc to pixels)\n" +
		"----- DOC TO PIXELS LOG START -----\n" +
		proc.Stderr() +
		"----- DOC TO PIXELS LOG END -----")
}

// atomicWrite lands the PDF under a temporary name in the target
// directory first, so a crash cannot leave a truncated file behind the
// safe name.
func atomicWrite(filename, id string, data []byte) error {
	tmp := filepath.Join(filepath.Dir(filename), "."+id+".part")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write safe pdf: %w", err)
	}
	if err := os.Rename(tmp, filename); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write safe pdf: %w", err)
	}
	return nil
}
