package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/R0KG/price-updater/mutate"
	"github.com/R0KG/price-updater/observability"
	"github.com/R0KG/price-updater/resources"
	"github.com/R0KG/price-updater/session"
)

type options struct {
	pdfPath string
	outPath string
	markup  float64
	font    string
	list    bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "priceup: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "priceup: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: priceup [flags] <catalog.pdf>\n")
		flag.PrintDefaults()
	}
	out := flag.String("out", "Updated_Catalog.pdf", "Path for the updated document")
	markup := flag.Float64("markup", session.DefaultMarkupPercent, "Markup percentage applied to every detected price")
	font := flag.String("font", "", "TrueType font for replacement text (default: $PRICEUP_FONT or ./DejaVuSans.ttf)")
	list := flag.Bool("list", false, "Only list detected prices, do not generate")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return options{}, fmt.Errorf("missing catalog path")
	}
	opts.pdfPath = flag.Arg(0)
	opts.outPath = *out
	opts.markup = *markup
	opts.font = *font
	opts.list = *list
	if opts.markup < 0 {
		return options{}, fmt.Errorf("markup must not be negative")
	}
	return opts, nil
}

func run(opts options) error {
	logger := observability.NewTextLogger(os.Stderr)
	ctx := context.Background()

	data, err := os.ReadFile(opts.pdfPath)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}

	fontCfg := loadFontConfig(opts.font, logger)
	sess, err := session.Open(ctx, data, session.Config{Font: fontCfg, Logger: logger})
	if err != nil {
		return err
	}

	occs := sess.Occurrences()
	if opts.list {
		if len(occs) == 0 {
			fmt.Println("no prices found")
			return nil
		}
		fmt.Printf("%-10s %-5s %s\n", "ID", "PAGE", "TEXT")
		for _, occ := range occs {
			fmt.Printf("%-10s %-5d %s\n", occ.ID, occ.Page(), occ.MatchedText)
		}
		return nil
	}

	out, err := sess.Generate(ctx, sess.DefaultRows(opts.markup))
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.outPath, out, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logger.Info("catalog updated",
		observability.String("out", opts.outPath),
		observability.Int("prices", len(occs)),
		observability.Float64("markup", opts.markup))
	return nil
}

// loadFontConfig resolves the replacement font. A missing font is not
// fatal; generation falls back to the builtin font.
func loadFontConfig(path string, logger observability.Logger) mutate.Config {
	data, err := resources.LoadFont(path)
	if err != nil {
		if errors.Is(err, resources.ErrFontUnavailable) {
			logger.Warn("replacement font unavailable, using builtin fallback",
				observability.Error("err", err))
			return mutate.Config{}
		}
		logger.Warn("font load failed", observability.Error("err", err))
		return mutate.Config{}
	}
	return mutate.Config{FontName: resources.DefaultFontName, FontData: data}
}
