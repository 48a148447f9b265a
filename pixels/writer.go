package pixels

import (
	"encoding/binary"
	"fmt"
	"io"
)

// StreamWriter encodes pages into the wire format. It is the counterpart
// of StreamReader and exists for the producing side of the protocol: the
// dummy renderer and test fixtures. Output is validated so that a
// StreamWriter can only emit streams a StreamReader would accept.
type StreamWriter struct {
	w io.Writer
}

// NewStreamWriter returns a StreamWriter emitting to w.
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: w}
}

// WritePageCount writes the leading page count field. Zero is rejected.
func (sw *StreamWriter) WritePageCount(count uint16) error {
	if count == 0 {
		return fmt.Errorf("%w: cannot declare zero pages", ErrInvalidPageCount)
	}

	var buf [countSize]byte
	binary.BigEndian.PutUint16(buf[:], count)
	if _, err := sw.w.Write(buf[:]); err != nil {
		return fmt.Errorf("write page count: %w", err)
	}
	return nil
}

// WritePage writes one page record: dimension header, then pixels. The
// page is validated first so malformed records never reach the wire.
func (sw *StreamWriter) WritePage(p Page) error {
	if p.Width == 0 || p.Height == 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, p.Width, p.Height)
	}
	if err := p.validate(); err != nil {
		return err
	}

	var hdr [pageHeaderSize]byte
	binary.BigEndian.PutUint16(hdr[0:2], p.Width)
	binary.BigEndian.PutUint16(hdr[2:4], p.Height)
	if _, err := sw.w.Write(hdr[:]); err != nil {
		return fmt.Errorf("write page header: %w", err)
	}
	if _, err := sw.w.Write(p.Pixels); err != nil {
		return fmt.Errorf("write pixel data: %w", err)
	}
	return nil
}

// WriteAll writes a complete stream: the count followed by every page in
// order. The page list must be non-empty and fit the u16 count field.
func (sw *StreamWriter) WriteAll(pages []Page) error {
	if len(pages) == 0 {
		return fmt.Errorf("%w: no pages to write", ErrInvalidPageCount)
	}
	if len(pages) > MaxPages {
		return fmt.Errorf("%w: %d pages exceeds the protocol maximum %d",
			ErrInvalidPageCount, len(pages), MaxPages)
	}

	if err := sw.WritePageCount(uint16(len(pages))); err != nil {
		return err
	}
	for i, p := range pages {
		if err := sw.WritePage(p); err != nil {
			return fmt.Errorf("page %d of %d: %w", i+1, len(pages), err)
		}
	}
	return nil
}
