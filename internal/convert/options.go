package convert

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/fitconv/internal/config"
	"github.com/danmuck/fitconv/internal/profile"
	"github.com/danmuck/fitconv/internal/protocol"
)

// Options configures a run. The zero value is usable: no comments,
// default header versions, the global logger.
type Options struct {
	// Titles names messages in comment lines written after definitions.
	Titles   profile.Lookup
	Comments bool

	// Header versions for text input without override lines.
	ProtocolVersion uint8
	ProfileVersion  uint16

	Logger *zerolog.Logger
}

func DefaultOptions() Options {
	return Options{
		Titles:          profile.Builtin(),
		Comments:        true,
		ProtocolVersion: protocol.ProtocolVersion20,
		ProfileVersion:  protocol.ProfileVersion,
	}
}

// OptionsFromConfig resolves cfg, loading its title catalog.
func OptionsFromConfig(cfg config.Config) (Options, error) {
	titles, err := profile.Load(cfg.Catalog)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Titles:          titles,
		Comments:        cfg.Comments,
		ProtocolVersion: cfg.ProtocolVersion,
		ProfileVersion:  cfg.ProfileVersion,
	}, nil
}

func (o Options) logger() *zerolog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return &log.Logger
}

func (o Options) versions() (uint8, uint16) {
	pv, prof := o.ProtocolVersion, o.ProfileVersion
	if pv == 0 {
		pv = protocol.ProtocolVersion20
	}
	if prof == 0 {
		prof = protocol.ProfileVersion
	}
	return pv, prof
}

// Stats summarizes a run.
type Stats struct {
	Definitions int
	DataRecords int
	BodyBytes   int64
	Lines       int
}
