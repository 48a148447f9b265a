// docsafe converts potentially dangerous documents into safe PDFs from
// the command line. Each input is rendered to pixels inside a hardened
// container and reassembled as <name>-safe.pdf next to the original.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/smnsjas/go-docsafe"
	"github.com/smnsjas/go-docsafe/container"
	"github.com/smnsjas/go-docsafe/document"
	"github.com/smnsjas/go-docsafe/safepdf"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		output      = flag.String("output", "", "safe PDF filename (only with a single input; default <input>-safe.pdf)")
		image       = flag.String("image", container.DefaultImage, "renderer container image")
		runtimeName = flag.String("runtime", "", "container runtime, podman or docker (default autodetect)")
		dpi         = flag.Float64("dpi", safepdf.DefaultDPI, "resolution the renderer rasterizes at")
		seccomp     = flag.String("seccomp-policy", "", "custom seccomp policy file for the container")
		debug       = flag.Bool("debug", false, "verbose logging, including the renderer's sandbox logs")
		dummy       = flag.Bool("dummy", false, "use the UNSAFE dummy renderer (testing only)")
		version     = flag.Bool("version", false, "print the version and exit")
	)
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: docsafe [options] FILE...")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *version {
		fmt.Println(docsafe.Version)
		return 0
	}

	if *debug {
		docsafe.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	inputs := flag.Args()
	if len(inputs) == 0 {
		flag.Usage()
		return 2
	}
	if *output != "" && len(inputs) > 1 {
		fmt.Fprintln(os.Stderr, "-output can only be used with one input file")
		return 2
	}

	provider, err := buildProvider(*dummy, *runtimeName, *image, *seccomp, *debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	core := docsafe.New(provider,
		docsafe.WithDPI(*dpi),
		docsafe.WithProgress(printProgress),
	)
	for _, input := range inputs {
		doc, err := newDocument(input, *output)
		if err == nil {
			err = core.Add(doc)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	banner()
	printHeader("Converting document(s) to safe PDF")
	_ = core.ConvertAll(ctx) // failures land on the documents and were printed as progress

	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "interrupted")
		return 1
	}
	return summarize(core)
}

func newDocument(input, output string) (*document.Document, error) {
	if output != "" {
		return document.NewWithOutput(input, output)
	}
	return document.New(input)
}

func buildProvider(dummy bool, runtimeName, image, seccompPath string, debug bool) (docsafe.Provider, error) {
	if dummy {
		fmt.Fprintln(os.Stderr, "WARNING: the dummy renderer provides no isolation; never feed it real documents")
		return docsafe.NewDummyProvider(), nil
	}

	opts := []container.Option{
		container.WithImage(image),
		container.WithDebug(debug),
	}
	if runtimeName != "" {
		rt, err := container.ParseRuntime(runtimeName)
		if err != nil {
			return nil, err
		}
		opts = append(opts, container.WithRuntime(rt))
	}
	if seccompPath != "" {
		opts = append(opts, container.WithSeccompProfile(seccompPath))
	}

	runner, err := container.NewRunner(opts...)
	if err != nil {
		return nil, err
	}
	return docsafe.NewContainerProvider(runner), nil
}

// printProgress renders one line per conversion event.
func printProgress(p docsafe.Progress) {
	line := fmt.Sprintf("[doc %s] %3d%% %s", p.DocID, int(p.Percentage), p.Text)
	if p.Error {
		fmt.Fprintln(os.Stderr, line)
		return
	}
	fmt.Println(line)
}

func summarize(core *docsafe.Core) int {
	if safe := core.SafeDocuments(); len(safe) > 0 {
		printHeader("Safe PDF(s) created successfully")
		for _, doc := range safe {
			fmt.Println(container.SanitizeText(doc.OutputFilename()))
		}
	}
	if failed := core.FailedDocuments(); len(failed) > 0 {
		printHeader("Failed to convert document(s)")
		for _, doc := range failed {
			fmt.Println(container.SanitizeText(doc.InputFilename()))
		}
		return 1
	}
	return 0
}

func banner() {
	inner := 30
	top := "╔" + strings.Repeat("═", inner) + "╗"
	bottom := "╚" + strings.Repeat("═", inner) + "╝"
	fmt.Println(top)
	fmt.Printf("║%-*s║\n", inner, "  docsafe "+docsafe.Version)
	fmt.Printf("║%-*s║\n", inner, "  dangerous in, safe PDF out")
	fmt.Println(bottom)
}

func printHeader(s string) {
	fmt.Println()
	fmt.Println(s)
}
