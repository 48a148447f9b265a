// docsafe-dummy behaves like a renderer without rendering anything: it
// reads a document on stdin until EOF, then emits a synthetic pixel
// stream on stdout. Useful for exercising stream consumers from a shell:
//
//	docsafe-dummy -pages 3 -width 100 -height 150 < in.docx | xxd | head
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/smnsjas/go-docsafe/pixels"
)

func main() {
	pages := flag.Int("pages", 2, "number of pages to emit")
	width := flag.Int("width", 9, "page width in pixels")
	height := flag.Int("height", 9, "page height in pixels")
	fill := flag.String("fill", "A", "byte every pixel channel is set to")
	flag.Parse()

	if err := run(*pages, *width, *height, *fill, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "docsafe-dummy:", err)
		os.Exit(1)
	}
}

func run(pages, width, height int, fill string, in io.Reader, out io.Writer) error {
	if pages < 1 || pages > pixels.MaxPages {
		return fmt.Errorf("pages must be in [1, %d], got %d", pixels.MaxPages, pages)
	}
	if width < 1 || width > 65535 || height < 1 || height > 65535 {
		return fmt.Errorf("dimensions must be in [1, 65535], got %dx%d", width, height)
	}
	if len(fill) != 1 {
		return fmt.Errorf("fill must be a single byte, got %q", fill)
	}

	// A renderer consumes its whole input before replying.
	if _, err := io.Copy(io.Discard, in); err != nil {
		return fmt.Errorf("drain stdin: %w", err)
	}

	page, err := pixels.NewPage(uint16(width), uint16(height),
		bytes.Repeat([]byte{fill[0]}, width*height*pixels.BytesPerPixel))
	if err != nil {
		return err
	}

	w := pixels.NewStreamWriter(out)
	if err := w.WritePageCount(uint16(pages)); err != nil {
		return err
	}
	for i := 0; i < pages; i++ {
		if err := w.WritePage(page); err != nil {
			return err
		}
	}
	return nil
}
