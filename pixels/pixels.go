// Package pixels implements the wire format that the isolated renderer
// uses to hand rasterized document pages back to the host.
//
// The renderer emits every page of a document as raw RGB raster data on
// its standard output. The layout is length-prefixed and carries no magic
// numbers, markers, checksums, or trailing metadata:
//
//	┌──────────────────────────────────────────────────────────┐
//	│  PageCount (2 bytes) - Number of pages, must be > 0      │
//	├──────────────────────────────────────────────────────────┤
//	│  Repeated PageCount times:                               │
//	│    Width  (2 bytes) - Pixels per row, must be > 0        │
//	│    Height (2 bytes) - Number of rows, must be > 0        │
//	│    Pixels (Width*Height*3 bytes) - RGB, row-major,       │
//	│           3 bytes per pixel in R, G, B order             │
//	└──────────────────────────────────────────────────────────┘
//
// # Byte Order (Endianness)
//
// All integer fields are big-endian. The u16 width makes 65535 the upper
// bound for the page count and for each page dimension; zero is invalid
// for all three fields.
//
// # Trust Model
//
// The producer runs inside a sandbox and is assumed hostile. Every field
// is validated before it is acted on, and the pixel payload is read
// incrementally so a lying header cannot force a multi-gigabyte
// allocation. The stream is not self-synchronizing: after any framing
// error the reader's position is undefined and the remainder of the
// stream must be discarded.
//
// # Usage
//
// To decode a renderer's output:
//
//	reader := pixels.NewStreamReader(proc.Output())
//	pages, err := reader.ReadAllPages()
//
// To produce a stream (test fixtures, the dummy renderer):
//
//	writer := pixels.NewStreamWriter(&buf)
//	err := writer.WriteAll(pages)
package pixels

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// BytesPerPixel is the size of one pixel on the wire: one byte each for
// the R, G, and B channels. There is no alpha channel.
const BytesPerPixel = 3

// MaxPages is the largest page count the u16 framing can express.
const MaxPages = math.MaxUint16

const (
	countSize      = 2 // page count field
	pageHeaderSize = 4 // width + height fields
)

var (
	// ErrInvalidPageCount is returned when a stream declares zero pages,
	// or when a writer is asked to emit a count the framing cannot carry.
	ErrInvalidPageCount = errors.New("invalid page count")
	// ErrInvalidDimensions is returned when a page header carries a zero
	// width or height.
	ErrInvalidDimensions = errors.New("invalid page dimensions")
	// ErrInvalidPixelData is returned when a pixel payload does not match
	// the byte count implied by the page dimensions.
	ErrInvalidPixelData = errors.New("invalid pixel data")
	// ErrUnexpectedEOF is returned when the stream ends while the protocol
	// still expects bytes. It is distinct from transport read failures,
	// which are wrapped with operation context instead.
	ErrUnexpectedEOF = errors.New("unexpected end of pixel stream")
)

// Page is one rasterized document page: its dimensions in pixels and the
// raw RGB data, row-major from the top-left corner. A Page is a plain
// value and is never mutated after construction.
type Page struct {
	Width  uint16
	Height uint16
	Pixels []byte
}

// NewPage builds a Page after checking that the pixel data matches the
// byte count the dimensions imply.
func NewPage(width, height uint16, pixels []byte) (Page, error) {
	p := Page{Width: width, Height: height, Pixels: pixels}
	if err := p.validate(); err != nil {
		return Page{}, err
	}
	return p, nil
}

func (p Page) validate() error {
	expected := int(p.Width) * int(p.Height) * BytesPerPixel
	if len(p.Pixels) != expected {
		return fmt.Errorf("%w: expected %d bytes for %dx%d page, got %d",
			ErrInvalidPixelData, expected, p.Width, p.Height, len(p.Pixels))
	}
	return nil
}

// PixelCount returns the number of pixels on the page. It is derived
// from the dimensions, never stored.
func (p Page) PixelCount() int {
	return int(p.Width) * int(p.Height)
}

// Image converts the raw RGB data into an RGBA image with an opaque
// alpha channel, ready for drawing.
func (p Page) Image() *image.RGBA {
	w, h := int(p.Width), int(p.Height)
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	// img.Pix is contiguous for a rectangle anchored at the origin, so a
	// single sweep over both buffers is enough.
	si, di := 0, 0
	for i := 0; i < w*h; i++ {
		img.Pix[di+0] = p.Pixels[si+0]
		img.Pix[di+1] = p.Pixels[si+1]
		img.Pix[di+2] = p.Pixels[si+2]
		img.Pix[di+3] = 0xFF
		si += BytesPerPixel
		di += 4
	}
	return img
}
