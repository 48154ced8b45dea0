package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/xloper/codec"
	"github.com/wippyai/xloper/sandbox"
	"github.com/wippyai/xloper/simhost"
)

func main() {
	var (
		value       = flag.String("value", "", "JSON value to encode")
		file        = flag.String("file", "", "Read the JSON value from a file")
		as          = flag.String("as", "any", "Shape to decode back as ("+strings.Join(decodeTargets, ", ")+")")
		expand      = flag.Bool("expand", true, "Expand vectors and matrices into arrays")
		layout      = flag.Bool("layout", false, "Show the 32-bit memory layout")
		verbose     = flag.Bool("v", false, "Verbose logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *verbose {
		l, err := zap.NewDevelopment()
		if err == nil {
			codec.SetLogger(l)
			simhost.SetLogger(l)
			sandbox.SetLogger(l)
			defer l.Sync()
		}
	}

	opts := options{
		value:  *value,
		as:     *as,
		expand: *expand,
		layout: *layout,
	}

	if *interactive {
		if err := runInteractive(opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: read file: %v\n", err)
			os.Exit(1)
		}
		opts.value = string(data)
	}

	if opts.value == "" {
		fmt.Fprintln(os.Stderr, "Usage: xlvariant -value <json> [-as shape] [-expand=false] [-layout]")
		fmt.Fprintln(os.Stderr, "       xlvariant -file <value.json> [-as shape]")
		fmt.Fprintln(os.Stderr, "       xlvariant -i  (interactive mode)")
		os.Exit(1)
	}

	if err := run(os.Stdout, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, opts options) error {
	r, err := inspect(context.Background(), opts)
	if err != nil {
		return err
	}

	styled := false
	if f, ok := w.(*os.File); ok {
		styled = term.IsTerminal(int(f.Fd()))
	}
	fmt.Fprint(w, render(r, opts, styled))
	return nil
}
