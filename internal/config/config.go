package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/fitconv/internal/logging"
	"github.com/danmuck/fitconv/internal/protocol"
)

// Config holds converter settings shared by both commands.
type Config struct {
	Comments        bool
	Catalog         string
	ProtocolVersion uint8
	ProfileVersion  uint16
	LogLevel        string
	MetricsTextfile string
}

type fileConfig struct {
	Comments        bool   `toml:"comments"`
	Catalog         string `toml:"catalog"`
	ProtocolVersion int64  `toml:"protocol_version"`
	ProfileVersion  int64  `toml:"profile_version"`
	LogLevel        string `toml:"log_level"`
	MetricsTextfile string `toml:"metrics_textfile"`
}

func Default() Config {
	return Config{
		Comments:        true,
		ProtocolVersion: protocol.ProtocolVersion20,
		ProfileVersion:  protocol.ProfileVersion,
		LogLevel:        "info",
	}
}

// Load reads the TOML file at path over Default. Keys absent from the
// file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("comments") {
		cfg.Comments = raw.Comments
	}
	if meta.IsDefined("catalog") {
		cfg.Catalog = strings.TrimSpace(raw.Catalog)
	}
	if meta.IsDefined("protocol_version") {
		if raw.ProtocolVersion < 0 || raw.ProtocolVersion > 0xFF {
			return Config{}, fmt.Errorf("config protocol_version %d out of range", raw.ProtocolVersion)
		}
		cfg.ProtocolVersion = uint8(raw.ProtocolVersion)
	}
	if meta.IsDefined("profile_version") {
		if raw.ProfileVersion < 0 || raw.ProfileVersion > 0xFFFF {
			return Config{}, fmt.Errorf("config profile_version %d out of range", raw.ProfileVersion)
		}
		cfg.ProfileVersion = uint16(raw.ProfileVersion)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("metrics_textfile") {
		cfg.MetricsTextfile = strings.TrimSpace(raw.MetricsTextfile)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if _, ok := logging.ParseLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("config log_level %q is not a known level", cfg.LogLevel)
	}
	if strings.HasSuffix(cfg.MetricsTextfile, "/") {
		return fmt.Errorf("config metrics_textfile %q must name a file", cfg.MetricsTextfile)
	}
	return nil
}
