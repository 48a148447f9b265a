package document

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

// writeInput creates a dummy input file and returns its path.
func writeInput(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("untrusted"), 0o644); err != nil {
		t.Fatalf("writing input file: %v", err)
	}
	return path
}

func TestDefaultOutputFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "pdf input", input: "report.pdf", want: "report-safe.pdf"},
		{name: "docx input", input: "letter.docx", want: "letter-safe.pdf"},
		{name: "no extension", input: "README", want: "README-safe.pdf"},
		{name: "double extension", input: "scan.tar.gz", want: "scan.tar-safe.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			input := writeInput(t, dir, tt.input)

			doc, err := New(input)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			want := filepath.Join(dir, tt.want)
			if got := doc.OutputFilename(); got != want {
				t.Errorf("OutputFilename() = %q, want %q", got, want)
			}
		})
	}
}

func TestNewMissingInput(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.pdf"))
	if !errors.Is(err, ErrInputNotFound) {
		t.Fatalf("New() error = %v, want %v", err, ErrInputNotFound)
	}
}

func TestNewDirectoryInput(t *testing.T) {
	_, err := New(t.TempDir())
	if !errors.Is(err, ErrInputNotFound) {
		t.Fatalf("New() error = %v, want %v", err, ErrInputNotFound)
	}
}

func TestNewWithOutputValidation(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "in.pdf")

	tests := []struct {
		name    string
		output  string
		wantErr error
	}{
		{
			name:   "valid output",
			output: filepath.Join(dir, "clean.pdf"),
		},
		{
			name:    "wrong extension",
			output:  filepath.Join(dir, "clean.txt"),
			wantErr: ErrOutputNotPDF,
		},
		{
			name:    "missing directory",
			output:  filepath.Join(dir, "missing", "clean.pdf"),
			wantErr: ErrOutputDirMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := NewWithOutput(input, tt.output)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewWithOutput() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewWithOutput() error = %v", err)
			}
			if got := doc.OutputFilename(); got != tt.output {
				t.Errorf("OutputFilename() = %q, want %q", got, tt.output)
			}
		})
	}
}

func TestSetOutputDirKeepsBasename(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "in.pdf")
	other := t.TempDir()

	doc, err := New(input)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := doc.SetOutputDir(other); err != nil {
		t.Fatalf("SetOutputDir() error = %v", err)
	}
	want := filepath.Join(other, "in-safe.pdf")
	if got := doc.OutputFilename(); got != want {
		t.Errorf("OutputFilename() = %q, want %q", got, want)
	}
}

func TestStateTransitions(t *testing.T) {
	dir := t.TempDir()

	t.Run("full successful chain", func(t *testing.T) {
		doc, err := New(writeInput(t, dir, "a.pdf"))
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if got := doc.State(); got != StateUnconverted {
			t.Fatalf("initial state = %v, want %v", got, StateUnconverted)
		}
		if err := doc.MarkConverting(); err != nil {
			t.Fatalf("MarkConverting() error = %v", err)
		}
		if err := doc.MarkSafe(); err != nil {
			t.Fatalf("MarkSafe() error = %v", err)
		}
		if got := doc.State(); got != StateSafe {
			t.Errorf("state = %v, want %v", got, StateSafe)
		}
	})

	t.Run("failure chain", func(t *testing.T) {
		doc, err := New(writeInput(t, dir, "b.pdf"))
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if err := doc.MarkConverting(); err != nil {
			t.Fatalf("MarkConverting() error = %v", err)
		}
		if err := doc.MarkFailed(); err != nil {
			t.Fatalf("MarkFailed() error = %v", err)
		}
		if got := doc.State(); got != StateFailed {
			t.Errorf("state = %v, want %v", got, StateFailed)
		}
	})

	t.Run("invalid transitions", func(t *testing.T) {
		doc, err := New(writeInput(t, dir, "c.pdf"))
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if err := doc.MarkSafe(); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("MarkSafe() from Unconverted error = %v, want %v", err, ErrInvalidTransition)
		}
		if err := doc.MarkConverting(); err != nil {
			t.Fatalf("MarkConverting() error = %v", err)
		}
		if err := doc.MarkConverting(); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("second MarkConverting() error = %v, want %v", err, ErrInvalidTransition)
		}
		if err := doc.MarkSafe(); err != nil {
			t.Fatalf("MarkSafe() error = %v", err)
		}
		if err := doc.MarkFailed(); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("MarkFailed() after Safe error = %v, want %v", err, ErrInvalidTransition)
		}
	})
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateUnconverted, "Unconverted"},
		{StateConverting, "Converting"},
		{StateSafe, "Safe"},
		{StateFailed, "Failed"},
		{State(42), "Unknown(42)"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", int(tt.state), got, tt.want)
		}
	}
}

func TestIDFormat(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "in.pdf")

	idPattern := regexp.MustCompile(`^[0-9a-f]{12}$`)
	seen := make(map[string]bool)
	for i := 0; i < 16; i++ {
		doc, err := New(input)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if !idPattern.MatchString(doc.ID()) {
			t.Fatalf("ID %q does not match %v", doc.ID(), idPattern)
		}
		if seen[doc.ID()] {
			t.Fatalf("duplicate ID %q", doc.ID())
		}
		seen[doc.ID()] = true
	}
}
