package pixels

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// StreamReader decodes a pixel stream from a byte source, typically the
// stdout of a renderer process. It assumes sole ownership of the source:
// reads are buffered, so nothing else may consume from it. A StreamReader
// is not safe for concurrent use.
type StreamReader struct {
	r *bufio.Reader
}

// NewStreamReader wraps the given source in a StreamReader.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{r: bufio.NewReader(r)}
}

// ReadPageCount reads the leading page count field. A declared count of
// zero fails with ErrInvalidPageCount; the protocol requires at least
// one page.
func (sr *StreamReader) ReadPageCount() (uint16, error) {
	var buf [countSize]byte
	if err := sr.readFull(buf[:], "page count"); err != nil {
		return 0, err
	}

	count := binary.BigEndian.Uint16(buf[:])
	if count == 0 {
		return 0, fmt.Errorf("%w: stream declares zero pages", ErrInvalidPageCount)
	}
	return count, nil
}

// ReadPage reads one page record: the dimension header followed by the
// pixel payload. Both dimensions are validated before any pixel data is
// consumed, so a malformed header costs nothing.
func (sr *StreamReader) ReadPage() (Page, error) {
	var hdr [pageHeaderSize]byte
	if err := sr.readFull(hdr[:], "page header"); err != nil {
		return Page{}, err
	}

	width := binary.BigEndian.Uint16(hdr[0:2])
	height := binary.BigEndian.Uint16(hdr[2:4])
	if width == 0 || height == 0 {
		return Page{}, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	// The payload buffer grows with the data that actually arrives rather
	// than being sized from the untrusted header, so a short or hostile
	// stream is bounded by its own length.
	need := int64(width) * int64(height) * BytesPerPixel
	var pix bytes.Buffer
	n, err := io.CopyN(&pix, sr.r, need)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Page{}, fmt.Errorf("%w: expected %d pixel bytes, got %d",
				ErrUnexpectedEOF, need, n)
		}
		return Page{}, fmt.Errorf("read pixel data: %w", err)
	}

	return NewPage(width, height, pix.Bytes())
}

// ReadAllPages reads the page count and then every declared page, in
// stream order. The read is all-or-nothing: the first failure aborts and
// is returned wrapped with the 1-based page position, and no partial
// result is kept.
func (sr *StreamReader) ReadAllPages() ([]Page, error) {
	count, err := sr.ReadPageCount()
	if err != nil {
		return nil, err
	}

	pages := make([]Page, 0, count)
	for i := 0; i < int(count); i++ {
		page, err := sr.ReadPage()
		if err != nil {
			return nil, fmt.Errorf("page %d of %d: %w", i+1, count, err)
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// readFull fills buf from the source. Running out of bytes maps to
// ErrUnexpectedEOF whether the source ended cleanly or mid-field; the
// protocol expected more either way. Other failures keep their transport
// error kind.
func (sr *StreamReader) readFull(buf []byte, field string) error {
	if _, err := io.ReadFull(sr.r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: reading %s", ErrUnexpectedEOF, field)
		}
		return fmt.Errorf("read %s: %w", field, err)
	}
	return nil
}
