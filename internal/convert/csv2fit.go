package convert

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/rs/zerolog"

	"github.com/danmuck/fitconv/internal/observability"
	"github.com/danmuck/fitconv/internal/protocol"
	"github.com/danmuck/fitconv/internal/textfmt"
)

// Encoder converts one text stream to binary. The destination must be
// seekable: the header is rewritten once the body length is known.
type Encoder struct {
	opts      Options
	log       *zerolog.Logger
	in        *textfmt.Reader
	dst       io.WriteSeeker
	codec     *protocol.Codec
	header    protocol.StreamHeader
	body      *bodyWriter
	sawRecord bool
	state     state
	stats     Stats
}

func NewEncoder(src io.Reader, dst io.WriteSeeker, opts Options) *Encoder {
	return &Encoder{
		opts:  opts,
		log:   opts.logger(),
		in:    textfmt.NewReader(src),
		dst:   dst,
		codec: protocol.NewCodec(),
	}
}

// TextToBinary converts text on src to a binary stream on dst.
func TextToBinary(src io.Reader, dst io.WriteSeeker, opts Options) (Stats, error) {
	return NewEncoder(src, dst, opts).Run()
}

// Run drives the encoder to completion. On failure the destination
// holds a provisional header and whatever body was written.
func (e *Encoder) Run() (Stats, error) {
	err := e.run()
	if err != nil && e.body != nil {
		_ = e.body.flush()
	}
	e.stats.Lines = e.in.LineNumber()
	if e.body != nil {
		e.stats.BodyBytes = e.body.n
	}
	observability.RecordBodyBytes(observability.DirectionTextToBinary, int(e.stats.BodyBytes))
	observability.RecordConversion(observability.DirectionTextToBinary, err)
	return e.stats, err
}

func (e *Encoder) run() error {
	for {
		var (
			stage Stage
			err   error
		)
		switch e.state {
		case stateHeader:
			stage, err = StageHeader, e.writeHeader()
		case stateBody:
			stage, err = StageBody, e.writeRecord()
		case stateTrailer:
			stage, err = StageTrailer, e.writeTrailer()
		case stateDone:
			return nil
		}
		if err != nil {
			serr := &StageError{Stage: stage, Err: err}
			if stage == StageBody {
				serr.Line = e.in.LineNumber()
			}
			return serr
		}
	}
}

func (e *Encoder) writeHeader() error {
	e.header = protocol.NewStreamHeader()
	e.header.ProtocolVersion, e.header.ProfileVersion = e.opts.versions()
	if err := e.putHeader(); err != nil {
		return err
	}
	e.body = newBodyWriter(e.dst)
	e.state = stateBody
	return nil
}

func (e *Encoder) putHeader() error {
	if _, err := e.dst.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w: seek header: %w", protocol.ErrIO, err)
	}
	if _, err := e.dst.Write(protocol.EncodeHeader(e.header)); err != nil {
		return fmt.Errorf("%w: write header: %w", protocol.ErrIO, err)
	}
	return nil
}

func (e *Encoder) writeRecord() error {
	line, err := e.in.Next()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: input ended without %s line", protocol.ErrIncompleteStream, textfmt.KeywordEnd)
	}
	if err != nil {
		return err
	}

	switch line.Kind {
	case textfmt.KindProtocolVersion, textfmt.KindProfileVersion:
		if e.sawRecord {
			return fmt.Errorf("%w: %s line after first record", protocol.ErrFormat, line.Kind)
		}
		if line.Kind == textfmt.KindProtocolVersion {
			e.header.ProtocolVersion = line.ProtocolVersion
		} else {
			e.header.ProfileVersion = line.ProfileVersion
		}
		return nil

	case textfmt.KindDefinition:
		b, err := e.codec.EncodeDefinition(line.Definition)
		if err != nil {
			return err
		}
		e.log.Debug().
			Int("line", e.in.LineNumber()).
			Uint8("local_type", line.Definition.LocalType).
			Uint16("global", line.Definition.GlobalNum).
			Int("size", len(b)).
			Msg("definition")
		e.sawRecord = true
		e.stats.Definitions++
		observability.RecordRecord(observability.DirectionTextToBinary, "definition")
		return e.body.write(b)

	case textfmt.KindData:
		rec := line.Data
		if rec.Compressed && rec.LocalType > protocol.MaxCompressedLocalType {
			e.log.Warn().
				Int("line", e.in.LineNumber()).
				Uint8("local_type", rec.LocalType).
				Msg("compressed timestamp needs local type 0-3, writing normal header")
		}
		b, err := e.codec.EncodeData(rec)
		if err != nil {
			return err
		}
		e.log.Debug().
			Int("line", e.in.LineNumber()).
			Uint8("local_type", rec.LocalType).
			Int("size", len(b)).
			Msg("data")
		e.sawRecord = true
		e.stats.DataRecords++
		observability.RecordRecord(observability.DirectionTextToBinary, "data")
		return e.body.write(b)

	case textfmt.KindEnd:
		e.state = stateTrailer
		return nil
	}
	return fmt.Errorf("%w: unexpected %s line", protocol.ErrFormat, line.Kind)
}

func (e *Encoder) writeTrailer() error {
	if _, err := e.in.Next(); !errors.Is(err, io.EOF) {
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: content after %s line at line %d",
			protocol.ErrFormat, textfmt.KeywordEnd, e.in.LineNumber())
	}
	if err := e.body.flush(); err != nil {
		return err
	}
	if e.body.n > math.MaxUint32 {
		return fmt.Errorf("%w: body of %d bytes exceeds header size field", protocol.ErrFormat, e.body.n)
	}

	e.header.DataSize = uint32(e.body.n)
	if err := e.putHeader(); err != nil {
		return err
	}
	if _, err := e.dst.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("%w: seek trailer: %w", protocol.ErrIO, err)
	}
	var trailer [2]byte
	binary.LittleEndian.PutUint16(trailer[:], e.body.crc)
	if _, err := e.dst.Write(trailer[:]); err != nil {
		return fmt.Errorf("%w: write trailing crc: %w", protocol.ErrIO, err)
	}
	e.log.Debug().
		Uint32("data_size", e.header.DataSize).
		Uint16("crc", e.body.crc).
		Msg("stream finalized")
	e.state = stateDone
	return nil
}
