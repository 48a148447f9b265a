package docsafe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smnsjas/go-docsafe/document"
)

// newTestDoc writes a small input file and wraps it in a Document. The
// content never matters: the dummy provider ignores it.
func newTestDoc(t *testing.T, dir, name string) *document.Document {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("not really a docx"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	doc, err := document.New(path)
	if err != nil {
		t.Fatalf("document.New() error = %v", err)
	}
	return doc
}

func TestAddRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	core := New(NewDummyProvider())

	doc := newTestDoc(t, dir, "a.docx")
	if err := core.Add(doc); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	// Same file again, as its own Document.
	again, err := document.New(doc.InputFilename())
	if err != nil {
		t.Fatalf("document.New() error = %v", err)
	}
	if err := core.Add(again); !errors.Is(err, ErrDuplicateDocument) {
		t.Errorf("Add(same path) error = %v, want ErrDuplicateDocument", err)
	}

	// Same file through a non-clean path.
	dodged, err := document.New(filepath.Join(dir, ".", "a.docx"))
	if err != nil {
		t.Fatalf("document.New() error = %v", err)
	}
	if err := core.Add(dodged); !errors.Is(err, ErrDuplicateDocument) {
		t.Errorf("Add(non-clean same path) error = %v, want ErrDuplicateDocument", err)
	}

	if got := len(core.Documents()); got != 1 {
		t.Errorf("len(Documents()) = %d, want 1", got)
	}
}

func TestDocumentSnapshots(t *testing.T) {
	dir := t.TempDir()
	core := New(NewDummyProvider())

	first := newTestDoc(t, dir, "first.docx")
	second := newTestDoc(t, dir, "second.docx")
	for _, doc := range []*document.Document{first, second} {
		if err := core.Add(doc); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	docs := core.Documents()
	if len(docs) != 2 || docs[0] != first || docs[1] != second {
		t.Errorf("Documents() out of order: %v", docs)
	}
	if got := len(core.UnconvertedDocuments()); got != 2 {
		t.Errorf("len(UnconvertedDocuments()) = %d, want 2", got)
	}
	if got := len(core.SafeDocuments()); got != 0 {
		t.Errorf("len(SafeDocuments()) = %d, want 0", got)
	}
	if got := len(core.FailedDocuments()); got != 0 {
		t.Errorf("len(FailedDocuments()) = %d, want 0", got)
	}
}

func TestConvertAll(t *testing.T) {
	dir := t.TempDir()
	core := New(NewDummyProvider())

	const n = 4
	names := []string{"a.docx", "b.odt", "c.png", "d.xlsx"}
	for _, name := range names {
		if err := core.Add(newTestDoc(t, dir, name)); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	if err := core.ConvertAll(context.Background()); err != nil {
		t.Fatalf("ConvertAll() error = %v", err)
	}

	safe := core.SafeDocuments()
	if len(safe) != n {
		t.Fatalf("len(SafeDocuments()) = %d, want %d", len(safe), n)
	}
	for _, doc := range safe {
		data, err := os.ReadFile(doc.OutputFilename())
		if err != nil {
			t.Fatalf("read %s: %v", doc.OutputFilename(), err)
		}
		if !strings.HasPrefix(string(data), "%PDF-") {
			t.Errorf("%s does not start with %%PDF-", doc.OutputFilename())
		}
	}

	// A second run has nothing left to do.
	if err := core.ConvertAll(context.Background()); err != nil {
		t.Errorf("ConvertAll() again error = %v", err)
	}
}

func TestConvertAllRecordsFailures(t *testing.T) {
	dir := t.TempDir()
	core := New(NewDummyProvider())

	good := newTestDoc(t, dir, "good.docx")
	bad := newTestDoc(t, dir, "bad.docx")
	for _, doc := range []*document.Document{good, bad} {
		if err := core.Add(doc); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	// Sabotage one input after registration.
	if err := os.Remove(bad.InputFilename()); err != nil {
		t.Fatalf("remove input: %v", err)
	}

	err := core.ConvertAll(context.Background())
	if err == nil {
		t.Fatal("ConvertAll() = nil, want an error for the sabotaged document")
	}
	if !strings.Contains(err.Error(), "doc "+bad.ID()) {
		t.Errorf("ConvertAll() error %q does not name doc %s", err, bad.ID())
	}

	if got := len(core.SafeDocuments()); got != 1 {
		t.Errorf("len(SafeDocuments()) = %d, want 1", got)
	}
	failed := core.FailedDocuments()
	if len(failed) != 1 || failed[0] != bad {
		t.Errorf("FailedDocuments() = %v, want just the sabotaged document", failed)
	}
}

func TestConvertAllCancelled(t *testing.T) {
	dir := t.TempDir()
	core := New(NewDummyProvider())
	if err := core.Add(newTestDoc(t, dir, "a.docx")); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := core.ConvertAll(ctx); err == nil {
		t.Error("ConvertAll(cancelled ctx) = nil, want an error")
	}
}
