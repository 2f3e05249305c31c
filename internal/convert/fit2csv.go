package convert

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/danmuck/fitconv/internal/observability"
	"github.com/danmuck/fitconv/internal/protocol"
	"github.com/danmuck/fitconv/internal/textfmt"
)

type state int

const (
	stateHeader state = iota
	stateBody
	stateTrailer
	stateDone
)

// Decoder converts one binary stream to text.
type Decoder struct {
	opts   Options
	log    *zerolog.Logger
	src    io.Reader
	out    *textfmt.Writer
	codec  *protocol.Codec
	header protocol.StreamHeader
	body   *bodyReader
	state  state
	stats  Stats
}

func NewDecoder(src io.Reader, dst io.Writer, opts Options) *Decoder {
	return &Decoder{
		opts:  opts,
		log:   opts.logger(),
		src:   src,
		out:   textfmt.NewWriter(dst),
		codec: protocol.NewCodec(),
	}
}

// BinaryToText converts src to text on dst.
func BinaryToText(src io.Reader, dst io.Writer, opts Options) (Stats, error) {
	return NewDecoder(src, dst, opts).Run()
}

// Run drives the decoder to completion. Text produced before a failure
// is flushed to the destination.
func (d *Decoder) Run() (Stats, error) {
	err := d.run()
	if ferr := d.out.Flush(); err == nil && ferr != nil {
		err = &StageError{Stage: StageTrailer, Err: ferr}
	}
	d.stats.Lines = d.out.Lines()
	if d.body != nil {
		d.stats.BodyBytes = d.body.n
	}
	observability.RecordBodyBytes(observability.DirectionBinaryToText, int(d.stats.BodyBytes))
	observability.RecordConversion(observability.DirectionBinaryToText, err)
	return d.stats, err
}

func (d *Decoder) run() error {
	for {
		var (
			stage Stage
			err   error
		)
		switch d.state {
		case stateHeader:
			stage, err = StageHeader, d.readHeader()
		case stateBody:
			stage, err = StageBody, d.readRecord()
		case stateTrailer:
			stage, err = StageTrailer, d.readTrailer()
		case stateDone:
			return nil
		}
		if err != nil {
			return &StageError{Stage: stage, Err: err}
		}
	}
}

func (d *Decoder) readHeader() error {
	h, err := protocol.ReadHeader(d.src)
	if err != nil {
		return err
	}
	d.header = h
	d.body = newBodyReader(d.src, h.DataSize)
	d.log.Debug().
		Uint8("protocol_version", h.ProtocolVersion).
		Uint16("profile_version", h.ProfileVersion).
		Uint32("data_size", h.DataSize).
		Msg("stream header")

	if err := d.out.WriteLine(textfmt.FormatProtocolVersion(h.ProtocolVersion)); err != nil {
		return err
	}
	if err := d.out.WriteLine(textfmt.FormatProfileVersion(h.ProfileVersion)); err != nil {
		return err
	}
	d.state = stateBody
	return nil
}

func (d *Decoder) readRecord() error {
	if d.body.n == int64(d.header.DataSize) {
		d.state = stateTrailer
		return nil
	}
	start := d.body.n
	h, err := protocol.ReadRecordHeader(d.body)
	if err != nil {
		return d.bodyError(start, err)
	}
	if h.IsDefinition() {
		def, err := d.codec.DecodeDefinition(h, d.body)
		if err != nil {
			return d.bodyError(start, err)
		}
		if err := d.out.WriteLine(textfmt.FormatDefinition(def)); err != nil {
			return err
		}
		if d.opts.Comments {
			if comment, ok := textfmt.DefinitionComment(def, d.opts.Titles); ok {
				if err := d.out.WriteLine(comment); err != nil {
					return err
				}
			}
		}
		d.log.Debug().
			Int64("offset", start).
			Uint8("local_type", def.LocalType).
			Uint16("global", def.GlobalNum).
			Int("payload", def.PayloadLength()).
			Msg("definition")
		d.stats.Definitions++
		observability.RecordRecord(observability.DirectionBinaryToText, "definition")
		return nil
	}

	rec, err := d.codec.DecodeData(h, d.body)
	if err != nil {
		return d.bodyError(start, err)
	}
	if err := d.out.WriteLine(textfmt.FormatData(rec)); err != nil {
		return err
	}
	d.log.Debug().
		Int64("offset", start).
		Uint8("local_type", rec.LocalType).
		Int("size", int(d.body.n-start)).
		Msg("data")
	d.stats.DataRecords++
	observability.RecordRecord(observability.DirectionBinaryToText, "data")
	return nil
}

// bodyError annotates err with the body offset of the failing record.
// A record cut off by the declared body length is a format error, not
// a short file.
func (d *Decoder) bodyError(start int64, err error) error {
	if errors.Is(err, protocol.ErrTruncated) && d.body.n == int64(d.header.DataSize) {
		return fmt.Errorf("%w: record at body offset %d crosses declared body length %d",
			protocol.ErrFormat, start, d.header.DataSize)
	}
	return fmt.Errorf("record at body offset %d: %w", start, err)
}

func (d *Decoder) readTrailer() error {
	var buf [2]byte
	if _, err := io.ReadFull(d.src, buf[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: missing trailing crc", protocol.ErrTruncated)
		}
		return fmt.Errorf("%w: read trailing crc: %w", protocol.ErrIO, err)
	}
	want := binary.LittleEndian.Uint16(buf[:])
	if want != d.body.crc {
		return fmt.Errorf("%w: trailing crc %#04x, computed %#04x", protocol.ErrChecksum, want, d.body.crc)
	}

	n, err := io.Copy(io.Discard, d.src)
	if n > 0 || err != nil {
		d.log.Warn().Err(err).Int64("bytes", n).Msg("ignoring data after trailing crc")
	}
	if err := d.out.WriteLine(textfmt.FormatEnd()); err != nil {
		return err
	}
	d.state = stateDone
	return nil
}
