package config

import (
	"fmt"
	"os"
)

func Template() string {
	return converterTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(converterTemplate), 0o600)
}

const converterTemplate = `# fitconv converter settings. Every key is optional.

# Emit advisory "# message: fields" comments after definition lines.
comments = true

# TOML title catalog merged over the built-in message names.
catalog = ""

# Header versions used by csv2fit when the text has no override lines.
protocol_version = 32
profile_version = 21141

log_level = "info"

# Write prometheus counters here after each run (node_exporter textfile).
metrics_textfile = ""
`
