// Package safepdf reassembles rasterized pages into a brand new PDF.
//
// The output is built exclusively from page dimensions and raw RGB pixel
// data. No byte of the original document survives into the result, which
// is the point: whatever active content the input carried, the safe PDF
// holds nothing but flat images.
//
// # Page Geometry
//
// A page of W x H pixels rasterized at D dots per inch measures
// (W/D)*72 by (H/D)*72 points. The PDF writer works in millimetres, so
// point sizes are converted with the 0.352777 mm/pt constant. Every page
// gets a media box sized to its own dimensions and its bitmap drawn
// full-bleed from the top-left corner, so mixed page sizes within one
// document come out faithfully.
//
// # Usage
//
//	rec := safepdf.NewReconstructor()
//	pdfBytes, err := rec.Reconstruct(pages)
//
// The result is a complete in-memory PDF starting with "%PDF-"; nothing
// touches the filesystem.
package safepdf

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/smnsjas/go-docsafe/pixels"
)

// DefaultDPI is the resolution the isolated renderer rasterizes at, and
// therefore the default for sizing reconstructed pages.
const DefaultDPI = 150

// docTitle is the only metadata the safe PDF carries.
const docTitle = "Safe PDF"

const (
	pointsPerInch = 72.0
	mmPerPoint    = 0.352777
)

var (
	// ErrNoPages is returned when Reconstruct is called with an empty
	// page list. A valid stream always carries at least one page, so an
	// empty list means the caller lost data on the way here.
	ErrNoPages = errors.New("no pages to reconstruct")
	// ErrInvalidDimensions is returned when a page carries a zero width
	// or height. Pages from the stream reader cannot trigger this; it
	// guards hand-built values.
	ErrInvalidDimensions = errors.New("invalid page dimensions")
)

// Reconstructor builds safe PDFs from rasterized pages. It holds only
// the configured resolution and is safe for concurrent use on
// independent inputs.
type Reconstructor struct {
	dpi float64
}

// NewReconstructor returns a Reconstructor sizing pages at DefaultDPI.
func NewReconstructor() *Reconstructor {
	return &Reconstructor{dpi: DefaultDPI}
}

// NewReconstructorWithDPI returns a Reconstructor sizing pages at the
// given source resolution. Non-positive values fall back to DefaultDPI.
func NewReconstructorWithDPI(dpi float64) *Reconstructor {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Reconstructor{dpi: dpi}
}

// DPI returns the source resolution pages are sized with.
func (r *Reconstructor) DPI() float64 {
	return r.dpi
}

// Reconstruct assembles the pages, in order, into a complete in-memory
// PDF. Every page is re-checked before anything is emitted, so a failed
// call produces no partial output.
func (r *Reconstructor) Reconstruct(pages []pixels.Page) ([]byte, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}
	for i, page := range pages {
		if err := checkPage(page); err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
	}

	var buf bytes.Buffer
	firstW, firstH := r.pageSizeMM(pages[0])
	writer := pdf.New(&buf, firstW, firstH, nil)
	writer.SetInfo(docTitle, "", "", "", "go-docsafe")

	for i, page := range pages {
		wmm, hmm := r.pageSizeMM(page)
		if i > 0 {
			writer.NewPage(wmm, hmm)
		}

		c := canvas.New(wmm, hmm)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV)

		// Density at which the bitmap covers the page edge to edge.
		dpmm := float64(page.Width) / wmm
		ctx.DrawImage(0, 0, page.Image(), canvas.DPMM(dpmm))
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("serialize pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// checkPage re-validates a page. Pages normally arrive from the stream
// reader already validated, but Page is a plain struct and nothing stops
// a caller from building one by hand.
func checkPage(p pixels.Page) error {
	if p.Width == 0 || p.Height == 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, p.Width, p.Height)
	}
	expected := p.PixelCount() * pixels.BytesPerPixel
	if len(p.Pixels) != expected {
		return fmt.Errorf("%w: expected %d bytes for %dx%d page, got %d",
			pixels.ErrInvalidPixelData, expected, p.Width, p.Height, len(p.Pixels))
	}
	return nil
}

// pixelsToPoints converts a pixel extent at the configured resolution
// into points (1/72 inch).
func (r *Reconstructor) pixelsToPoints(px int) float64 {
	return float64(px) / r.dpi * pointsPerInch
}

func pointsToMM(pt float64) float64 {
	return pt * mmPerPoint
}

// pageSizeMM returns a page's physical size in millimetres.
func (r *Reconstructor) pageSizeMM(p pixels.Page) (w, h float64) {
	return pointsToMM(r.pixelsToPoints(int(p.Width))),
		pointsToMM(r.pixelsToPoints(int(p.Height)))
}
