package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/pflag"

	"github.com/danmuck/fitconv/internal/config"
	"github.com/danmuck/fitconv/internal/profile"
)

const defaultPath = "fitconv.toml"

func main() {
	msg, err := run(os.Args[1:], os.Stderr)
	if err != nil {
		log.Fatal(err)
	}
	log.Print(msg)
}

func run(args []string, stderr io.Writer) (string, error) {
	fs := pflag.NewFlagSet("configgen", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	output := fs.String("output", defaultPath, "output path for config template")
	validate := fs.Bool("validate", false, "validate an existing config file")
	input := fs.String("input", defaultPath, "config path for validation")
	force := fs.Bool("force", false, "overwrite existing config file")
	if err := fs.Parse(args); err != nil {
		return "", err
	}

	if *validate {
		cfg, err := config.Load(*input)
		if err != nil {
			return "", err
		}
		if _, err := profile.Load(cfg.Catalog); err != nil {
			return "", err
		}
		return fmt.Sprintf("Validated config at %s", *input), nil
	}

	if err := config.WriteTemplate(*output, *force); err != nil {
		return "", err
	}
	return fmt.Sprintf("Wrote config template to %s", *output), nil
}
