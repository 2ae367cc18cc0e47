package main

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/R0KG/price-updater/mutate"
	"github.com/R0KG/price-updater/observability"
	"github.com/R0KG/price-updater/resources"
	"github.com/R0KG/price-updater/web"
)

type options struct {
	addr string
	font string
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "priceup-web: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "priceup-web: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: priceup-web [flags]\n")
		flag.PrintDefaults()
	}
	addr := flag.String("addr", ":8080", "Listen address")
	font := flag.String("font", "", "TrueType font for replacement text (default: $PRICEUP_FONT or ./DejaVuSans.ttf)")
	flag.Parse()
	if flag.NArg() != 0 {
		flag.Usage()
		return options{}, fmt.Errorf("unexpected arguments")
	}
	opts.addr = *addr
	opts.font = *font
	return opts, nil
}

func run(opts options) error {
	logger := observability.NewTextLogger(os.Stderr)

	fontCfg := mutate.Config{}
	if data, err := resources.LoadFont(opts.font); err != nil {
		if !errors.Is(err, resources.ErrFontUnavailable) {
			return err
		}
		logger.Warn("replacement font unavailable, using builtin fallback",
			observability.Error("err", err))
	} else {
		fontCfg = mutate.Config{FontName: resources.DefaultFontName, FontData: data}
	}

	srv := web.NewServer(web.Config{Font: fontCfg, Logger: logger})
	logger.Info("listening", observability.String("addr", opts.addr))
	return http.ListenAndServe(opts.addr, srv.Handler())
}
