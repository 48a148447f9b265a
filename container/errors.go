package container

import (
	"errors"
	"fmt"
	"os/exec"
)

// Exit codes a renderer uses to report why it could not produce pixels.
// The code is the authoritative signal; the renderer's stderr is for
// humans only and never parsed.
const (
	CodeUnsupportedFormat = 10
	CodeOfficeFailure     = 20
	CodeBadGraphics       = 30
	CodePageProcessing    = 40
	CodeNoPageCount       = 41
	CodePDFToPixels       = 50
	CodeBadPPMHeader      = 51
	CodeBadPPMDepth       = 52
)

var exitMessages = map[int]string{
	CodeUnsupportedFormat: "the document format is not supported",
	CodeOfficeFailure:     "conversion to PDF with LibreOffice failed",
	CodeBadGraphics:       "invalid graphics conversion",
	CodePageProcessing:    "error processing PDF pages",
	CodeNoPageCount:       "number of pages could not be extracted from PDF",
	CodePDFToPixels:       "error converting PDF to pixels (pdftoppm)",
	CodeBadPPMHeader:      "error converting PDF to pixels (invalid PPM header)",
	CodeBadPPMDepth:       "error converting PDF to pixels (invalid PPM depth)",
}

// RendererError reports a renderer that exited with a failure code
// instead of producing a pixel stream.
type RendererError struct {
	Code int
}

func (e *RendererError) Error() string {
	if msg, ok := exitMessages[e.Code]; ok {
		return msg
	}
	return fmt.Sprintf("conversion failed with exit code %d", e.Code)
}

// ExitCodeError translates a Wait error into a RendererError when the
// process exited with a code. Other errors, including a nil one, pass
// through unchanged.
func ExitCodeError(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &RendererError{Code: exitErr.ExitCode()}
	}
	return err
}
