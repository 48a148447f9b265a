// Package document tracks an input file through a sanitization run.
//
// A Document pairs the untrusted input with the filename its safe PDF
// will be written to, and records how far the conversion has come.
//
// # State Machine
//
// Every document follows a strict state machine:
//
//	Unconverted → Converting → Safe
//	                  ↓
//	                Failed
//
// State transitions:
//   - Unconverted: initial state, conversion not started
//   - Converting: a renderer is working on the document
//   - Safe: the safe PDF was written to the output filename
//   - Failed: the conversion was aborted, no safe PDF exists
//
// Safe and Failed are terminal; a document is converted at most once.
//
// # Filenames
//
// The output filename defaults to the input filename with its extension
// replaced by "-safe.pdf", in the same directory. Explicit output names
// must end in ".pdf" and point into an existing directory.
package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// SafeExtension is the suffix given to sanitized output files.
const SafeExtension = "-safe.pdf"

var (
	// ErrInputNotFound is returned when the input document does not exist
	// or is not a regular file.
	ErrInputNotFound = errors.New("input document not found")
	// ErrOutputNotPDF is returned when an output filename does not end in .pdf.
	ErrOutputNotPDF = errors.New("output filename must end in .pdf")
	// ErrOutputDirMissing is returned when the output directory does not exist.
	ErrOutputDirMissing = errors.New("output directory does not exist")
	// ErrInvalidTransition is returned when a state change is not allowed
	// from the document's current state.
	ErrInvalidTransition = errors.New("invalid document state transition")
)

// State represents how far a document's conversion has come.
type State int

const (
	// StateUnconverted is the initial state before conversion starts.
	StateUnconverted State = iota
	// StateConverting indicates a renderer is working on the document.
	StateConverting
	// StateSafe indicates the safe PDF has been written.
	StateSafe
	// StateFailed indicates the conversion was aborted.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnconverted:
		return "Unconverted"
	case StateConverting:
		return "Converting"
	case StateSafe:
		return "Safe"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Document is one input file tracked through a sanitization run.
// All methods are safe for concurrent use.
type Document struct {
	mu sync.RWMutex

	id             string
	inputFilename  string
	outputFilename string
	state          State
}

// New creates a Document for the given input file. The output filename
// defaults to the input with its extension replaced by SafeExtension.
func New(input string) (*Document, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	return &Document{
		id:             newID(),
		inputFilename:  input,
		outputFilename: defaultOutput(input),
	}, nil
}

// NewWithOutput creates a Document with an explicit output filename.
func NewWithOutput(input, output string) (*Document, error) {
	doc, err := New(input)
	if err != nil {
		return nil, err
	}
	if err := doc.SetOutputFilename(output); err != nil {
		return nil, err
	}
	return doc, nil
}

// ID returns the document's short random identifier. It tags progress
// output and container instance names, never the document content.
func (d *Document) ID() string {
	return d.id
}

// InputFilename returns the path of the untrusted input.
func (d *Document) InputFilename() string {
	return d.inputFilename
}

// OutputFilename returns the path the safe PDF will be written to.
func (d *Document) OutputFilename() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.outputFilename
}

// SetOutputFilename points the document at a new output path, subject to
// the same validation as NewWithOutput.
func (d *Document) SetOutputFilename(output string) error {
	if err := validateOutput(output); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outputFilename = output
	return nil
}

// SetOutputDir moves the output into dir, keeping the current basename.
func (d *Document) SetOutputDir(dir string) error {
	return d.SetOutputFilename(filepath.Join(dir, filepath.Base(d.OutputFilename())))
}

// State returns the document's current state.
func (d *Document) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// MarkConverting records that a renderer has started on the document.
func (d *Document) MarkConverting() error {
	return d.transition(StateUnconverted, StateConverting)
}

// MarkSafe records that the safe PDF was written.
func (d *Document) MarkSafe() error {
	return d.transition(StateConverting, StateSafe)
}

// MarkFailed records that the conversion was aborted.
func (d *Document) MarkFailed() error {
	return d.transition(StateConverting, StateFailed)
}

func (d *Document) transition(from, to State) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != from {
		return fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidTransition, d.state, to)
	}
	d.state = to
	return nil
}

// newID returns a short random identifier: the first 12 hex digits of a
// fresh UUID.
func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func defaultOutput(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + SafeExtension
}

func validateInput(input string) error {
	info, err := os.Stat(input)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrInputNotFound, input)
		}
		return fmt.Errorf("stat input document: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrInputNotFound, input)
	}
	return nil
}

func validateOutput(output string) error {
	if !strings.HasSuffix(output, ".pdf") {
		return fmt.Errorf("%w: %s", ErrOutputNotPDF, output)
	}
	dir := filepath.Dir(output)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrOutputDirMissing, dir)
	}
	return nil
}
