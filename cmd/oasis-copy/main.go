package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/oasis/oasis"
)

const usage = `usage: oasis-copy [-c cell[,cell...]]... [-lntvxizsrV] [-pick] [-debug] input-oasis-file output-oasis-file

Options:
  -c cells  Copy only these cells and the cells they place. Repeatable.
  -pick     Choose the cells to copy interactively.
  -i        Write name records as soon as they are registered.
  -l        Ignore LAYERNAME records.
  -n        Tolerate deviations from the OASIS specification.
  -t        Ignore TEXT and TEXTSTRING records.
  -v        Ignore the validation scheme and signature in END.
  -x        Ignore XNAME, XELEMENT and XGEOMETRY records.
  -z        Do not compress cells and name tables.
  -s        Do not record name table offsets in END.
  -r        Write element positions in relative mode.
  -V        Verify the input signature before copying.
  -debug    Log parser and creator progress to stderr.
`

// cellList collects -c values. Each value may hold a comma separated list.
type cellList []string

func (l *cellList) String() string {
	return strings.Join(*l, ",")
}

func (l *cellList) Set(v string) error {
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			*l = append(*l, s)
		}
	}
	return nil
}

type config struct {
	input, output string
	cells         []string
	pick          bool
	verify        bool
	parser        oasis.ParserOptions
	creator       oasis.CreatorOptions
}

func parseArgs(fs *flag.FlagSet, args []string) (*config, error) {
	var (
		cells       cellList
		noLayers    = fs.Bool("l", false, "ignore LAYERNAME records")
		relaxed     = fs.Bool("n", false, "relaxed conformance")
		noText      = fs.Bool("t", false, "ignore TEXT and TEXTSTRING records")
		noValidate  = fs.Bool("v", false, "ignore END validation")
		noExt       = fs.Bool("x", false, "ignore extension records")
		immediate   = fs.Bool("i", false, "write names immediately")
		noCompress  = fs.Bool("z", false, "no CBLOCK compression")
		nonStrict   = fs.Bool("s", false, "non-strict name tables")
		relative    = fs.Bool("r", false, "relative xy mode")
		verify      = fs.Bool("V", false, "verify input signature")
		interactive = fs.Bool("pick", false, "interactive cell picker")
	)
	fs.Var(&cells, "c", "cells to copy")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 2 {
		return nil, fmt.Errorf("expected input and output files, got %d arguments", fs.NArg())
	}
	if *interactive && len(cells) > 0 {
		return nil, fmt.Errorf("-pick and -c are mutually exclusive")
	}

	cfg := &config{
		input:   fs.Arg(0),
		output:  fs.Arg(1),
		cells:   cells,
		pick:    *interactive,
		verify:  *verify,
		parser:  oasis.DefaultParserOptions(),
		creator: oasis.DefaultCreatorOptions(),
	}
	cfg.parser.WantLayerName = !*noLayers
	cfg.parser.StrictConformance = !*relaxed
	cfg.parser.WantText = !*noText
	cfg.parser.WantValidation = !*noValidate
	cfg.parser.WantExtensions = !*noExt
	cfg.creator.ImmediateNames = *immediate
	cfg.creator.Compress = !*noCompress
	cfg.creator.StrictTables = !*nonStrict
	cfg.creator.RelativeXY = *relative
	return cfg, nil
}

func main() {
	fs := flag.NewFlagSet("oasis-copy", flag.ExitOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	debug := fs.Bool("debug", false, "debug logging")

	cfg, err := parseArgs(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		os.Exit(1)
	}

	if *debug {
		log, err := zap.NewDevelopment()
		if err != nil {
			fatal(err)
		}
		defer func() { _ = log.Sync() }()
		oasis.SetLogger(log)
	}

	if err := run(cfg); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	msg := fmt.Sprintf("oasis-copy: %v", err)
	if term.IsTerminal(int(os.Stderr.Fd())) {
		msg = errorStyle.Render(msg)
	}
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

func run(cfg *config) error {
	p, err := oasis.OpenFile(cfg.input, cfg.parser)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.input, err)
	}
	if cfg.verify {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("verify %s: %w", cfg.input, err)
		}
	}

	cells := cfg.cells
	if cfg.pick {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("-pick needs a terminal")
		}
		cells, err = runPicker(cfg.input, cellStrings(p.CellNames()))
		if err != nil {
			return fmt.Errorf("pick cells: %w", err)
		}
		if len(cells) == 0 {
			return fmt.Errorf("no cells selected")
		}
	}

	copts := cfg.creator
	copts.CellNames = cells
	c, err := oasis.CreateFile(cfg.output, copts)
	if err != nil {
		return err
	}

	if len(cells) == 0 {
		err = p.ParseFile(c)
	} else {
		err = p.ExtractCells(cells, c)
	}
	if cerr := c.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(cfg.output)
		return fmt.Errorf("copy %s to %s: %w", cfg.input, cfg.output, err)
	}
	return nil
}

func cellStrings(names []oasis.Name) []string {
	result := make([]string, len(names))
	for i, n := range names {
		result[i] = n.String()
	}
	return result
}
