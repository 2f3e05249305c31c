// Package cli is the shared command-line front end of fit2csv and csv2fit.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/danmuck/fitconv/internal/config"
	"github.com/danmuck/fitconv/internal/convert"
	"github.com/danmuck/fitconv/internal/logging"
	"github.com/danmuck/fitconv/internal/observability"
	"github.com/danmuck/fitconv/internal/verify"
)

// Direction binds a command name to its conversion.
type Direction struct {
	Name    string
	Source  string
	Target  string
	Convert func(src, dst string, opts convert.Options) (convert.Stats, error)
}

var (
	FitToCSV = Direction{
		Name:    observability.DirectionBinaryToText,
		Source:  "src.fit",
		Target:  "dst.csv",
		Convert: convert.FitToCSVFile,
	}
	CSVToFit = Direction{
		Name:    observability.DirectionTextToBinary,
		Source:  "src.csv",
		Target:  "dst.fit",
		Convert: convert.CSVToFitFile,
	}
)

type flags struct {
	config     string
	reference  string
	metrics    string
	noComments bool
}

// Main runs one command invocation and returns its exit status.
func Main(d Direction, args []string, stdout, stderr io.Writer) int {
	var f flags
	fs := pflag.NewFlagSet(d.Name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.config, "config", "", "TOML settings file")
	fs.StringVar(&f.reference, "reference", "", "compare the output against this file")
	fs.StringVar(&f.metrics, "metrics-textfile", "", "write prometheus metrics to this file")
	fs.BoolVar(&f.noComments, "no-comments", false, "omit title comments after definitions")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: %s [flags] <%s> <%s>\n\nFlags:\n", d.Name, d.Source, d.Target)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 1
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return 1
	}

	logging.ConfigureRuntime(d.Name)
	if err := run(d, f, fs.Arg(0), fs.Arg(1), stdout); err != nil {
		log.Error().Err(err).Str("src", fs.Arg(0)).Str("dst", fs.Arg(1)).Msg("conversion failed")
		fmt.Fprintf(stderr, "%s: %v\n", d.Name, err)
		return 1
	}
	return 0
}

func run(d Direction, f flags, src, dst string, stdout io.Writer) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	logging.SetLevel(cfg.LogLevel)

	opts, err := convert.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}

	stats, convErr := d.Convert(src, dst, opts)
	if err := observability.WriteTextfile(cfg.MetricsTextfile); err != nil {
		log.Warn().Err(err).Str("path", cfg.MetricsTextfile).Msg("metrics textfile not written")
	}
	if convErr != nil {
		return convErr
	}
	log.Info().
		Int("definitions", stats.Definitions).
		Int("data_records", stats.DataRecords).
		Int64("body_bytes", stats.BodyBytes).
		Msg("conversion complete")
	fmt.Fprintf(stdout, "%s: wrote %s (%d definitions, %d data records)\n",
		d.Name, dst, stats.Definitions, stats.DataRecords)

	if f.reference == "" {
		return nil
	}
	res, err := verify.CompareFiles(dst, f.reference)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s: reference %s\n", d.Name, res)
	if !res.Match {
		return fmt.Errorf("output differs from reference %s at byte %d", f.reference, res.FirstDiff)
	}
	return nil
}

func loadConfig(f flags) (config.Config, error) {
	cfg := config.Default()
	if f.config != "" {
		var err error
		if cfg, err = config.Load(f.config); err != nil {
			return config.Config{}, err
		}
	}
	if f.noComments {
		cfg.Comments = false
	}
	if f.metrics != "" {
		cfg.MetricsTextfile = f.metrics
	}
	return cfg, config.Validate(cfg)
}
