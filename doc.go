// Package docsafe converts potentially dangerous documents into safe PDFs.
//
// A document is never parsed on the host. It is handed to a disposable
// renderer process that rasterizes every page and streams raw RGB pixels
// back; the host turns those pixels into a fresh PDF. Only fixed-layout
// pixel data crosses the trust boundary, so whatever was hiding in the
// original file cannot reach the host side.
//
// # Architecture
//
// The library is organized into layers:
//
//   - Core: document registry and conversion orchestration
//   - document: per-document naming, validation and lifecycle state
//   - container: hardened podman/docker renderer processes
//   - pixels: the length-prefixed pixel stream wire format
//   - safepdf: raster pages to PDF reconstruction
//
// # Basic Usage
//
//	// Pick how renderers run (hardened containers here)
//	runner, err := container.NewRunner()
//	if err != nil {
//	    return err
//	}
//	core := docsafe.New(docsafe.NewContainerProvider(runner))
//
//	// Register documents
//	doc, err := document.New("report.docx")
//	if err != nil {
//	    return err
//	}
//	if err := core.Add(doc); err != nil {
//	    return err
//	}
//
//	// Convert; report.docx becomes report-safe.pdf
//	if err := core.ConvertAll(ctx); err != nil {
//	    return err
//	}
//
// # Renderer Contract
//
// Core does not care how a renderer is isolated. Any Provider works as
// long as its processes consume the document on stdin and produce the
// pixels wire format on stdout, reporting failure through the exit
// codes in the container package. NewDummyProvider is a no-isolation
// stand-in for tests and demos.
package docsafe

// Version is the library version.
const Version = "0.1.0-dev"
