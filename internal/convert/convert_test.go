package convert

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/danmuck/fitconv/internal/profile"
	"github.com/danmuck/fitconv/internal/protocol"
	"github.com/danmuck/fitconv/internal/protocol/crc"
	"github.com/danmuck/fitconv/internal/testutil/testlog"
)

// seekBuffer is an in-memory io.WriteSeeker.
type seekBuffer struct {
	buf []byte
	off int
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	if end := s.off + len(p); end > len(s.buf) {
		s.buf = append(s.buf, make([]byte, end-len(s.buf))...)
	}
	copy(s.buf[s.off:], p)
	s.off += len(p)
	return len(p), nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = int64(s.off)
	case io.SeekEnd:
		base = int64(len(s.buf))
	}
	if base+offset < 0 {
		return 0, errors.New("negative position")
	}
	s.off = int(base + offset)
	return int64(s.off), nil
}

var goldenBinary = []byte{
	0x0e, 0x02, 0x95, 0x52, 0x0b, 0x00, 0x00, 0x00, '.', 'F', 'I', 'T', 0x8e, 0x40,
	0x40, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x02,
	0x00, 0x04,
	0xf5, 0xef,
}

const goldenText = "FIT_PROTOCOL_VERSION, 2\n" +
	"FIT_PROFILE_VERSION, 21141\n" +
	"DEF: M_TYPE,0, M_NUM,0, FIELDS,1, DEV_FIELDS,0,,0,1,2,,\n" +
	"DATA: CT,0, M_TYPE,00,,004,\n" +
	"END,\n"

const mixedText = "FIT_PROTOCOL_VERSION, 32\n" +
	"FIT_PROFILE_VERSION, 21141\n" +
	"DEF: M_TYPE,0, M_NUM,0, FIELDS,2, DEV_FIELDS,0,,0,1,0,,4,4,134,,\n" +
	"DATA: CT,0, M_TYPE,00,,004,00000000042,\n" +
	"DEF: M_TYPE,1, M_NUM,20, FIELDS,3, DEV_FIELDS,1, ARCH,1,,253,4,134,,3,1,2,,8,6,7,,0,2,0,,\n" +
	"DATA: CT,1, M_TYPE,01,,17,,01000000000,120,hello,001/002,\n" +
	"DATA: CT,0, M_TYPE,01,,01000000005,121,NULL,000/000,\n" +
	"END,\n"

func plainOptions() Options {
	return Options{Titles: profile.None{}}
}

func toBinary(t *testing.T, text string) []byte {
	t.Helper()
	var out seekBuffer
	if _, err := TextToBinary(strings.NewReader(text), &out, plainOptions()); err != nil {
		t.Fatalf("text to binary: %v", err)
	}
	return out.buf
}

func toText(t *testing.T, bin []byte, opts Options) string {
	t.Helper()
	var out bytes.Buffer
	if _, err := BinaryToText(bytes.NewReader(bin), &out, opts); err != nil {
		t.Fatalf("binary to text: %v", err)
	}
	return out.String()
}

func TestTextToBinaryGolden(t *testing.T) {
	testlog.Start(t)
	var out seekBuffer
	stats, err := TextToBinary(strings.NewReader(goldenText), &out, plainOptions())
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !bytes.Equal(out.buf, goldenBinary) {
		t.Fatalf("binary=% x\nwant   % x", out.buf, goldenBinary)
	}
	if stats.Definitions != 1 || stats.DataRecords != 1 || stats.BodyBytes != 11 || stats.Lines != 5 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestBinaryToTextGolden(t *testing.T) {
	testlog.Start(t)
	var out bytes.Buffer
	stats, err := BinaryToText(bytes.NewReader(goldenBinary), &out, plainOptions())
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if out.String() != goldenText {
		t.Fatalf("text=%q\nwant %q", out.String(), goldenText)
	}
	if stats.Definitions != 1 || stats.DataRecords != 1 || stats.BodyBytes != 11 || stats.Lines != 5 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestBinaryToTextWritesTitleComments(t *testing.T) {
	testlog.Start(t)
	got := toText(t, goldenBinary, Options{Titles: profile.Builtin(), Comments: true})
	want := "FIT_PROTOCOL_VERSION, 2\n" +
		"FIT_PROFILE_VERSION, 21141\n" +
		"DEF: M_TYPE,0, M_NUM,0, FIELDS,1, DEV_FIELDS,0,,0,1,2,,\n" +
		"# file_id: type(0)\n" +
		"DATA: CT,0, M_TYPE,00,,004,\n" +
		"END,\n"
	if got != want {
		t.Fatalf("text=%q\nwant %q", got, want)
	}
	if back := toBinary(t, got); !bytes.Equal(back, goldenBinary) {
		t.Fatalf("commented text did not reproduce binary: % x", back)
	}
}

func TestTextRoundTrip(t *testing.T) {
	testlog.Start(t)
	got := toText(t, toBinary(t, mixedText), plainOptions())
	if got != mixedText {
		t.Fatalf("text round trip:\n%s\nwant\n%s", got, mixedText)
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	testlog.Start(t)
	first := toBinary(t, mixedText)
	second := toBinary(t, toText(t, first, DefaultOptions()))
	if !bytes.Equal(first, second) {
		t.Fatalf("binary round trip:\n% x\n% x", second, first)
	}
	if first[0] != protocol.HeaderSize || first[1] != protocol.ProtocolVersion20 {
		t.Fatalf("unexpected header % x", first[:protocol.HeaderSize])
	}
}

func TestBinaryToTextAcceptsLegacyHeader(t *testing.T) {
	testlog.Start(t)
	legacy := append([]byte{0x0c, 0x02, 0x95, 0x52, 0x0b, 0x00, 0x00, 0x00, '.', 'F', 'I', 'T'},
		goldenBinary[protocol.HeaderSize:]...)
	if got := toText(t, legacy, plainOptions()); got != goldenText {
		t.Fatalf("text=%q\nwant %q", got, goldenText)
	}
}

func TestBinaryToTextIgnoresTrailingGarbage(t *testing.T) {
	testlog.Start(t)
	padded := append(append([]byte{}, goldenBinary...), 0xde, 0xad)
	if got := toText(t, padded, plainOptions()); got != goldenText {
		t.Fatalf("text=%q\nwant %q", got, goldenText)
	}
}

func TestBinaryToTextErrors(t *testing.T) {
	testlog.Start(t)
	mutate := func(f func(b []byte) []byte) []byte {
		return f(append([]byte{}, goldenBinary...))
	}
	cases := map[string]struct {
		in    []byte
		want  error
		stage Stage
	}{
		"empty": {in: nil, want: protocol.ErrTruncated, stage: StageHeader},
		"bad magic": {in: mutate(func(b []byte) []byte {
			b[8] = 'X'
			b[12], b[13] = 0, 0
			return b
		}), want: protocol.ErrFormat, stage: StageHeader},
		"bad header crc": {in: mutate(func(b []byte) []byte {
			b[12] ^= 0xff
			return b
		}), want: protocol.ErrChecksum, stage: StageHeader},
		"bad trailing crc": {in: mutate(func(b []byte) []byte {
			b[len(b)-1] ^= 0xff
			return b
		}), want: protocol.ErrChecksum, stage: StageTrailer},
		"missing trailing crc": {in: mutate(func(b []byte) []byte {
			return b[:len(b)-2]
		}), want: protocol.ErrTruncated, stage: StageTrailer},
		"short body": {in: mutate(func(b []byte) []byte {
			return b[:20]
		}), want: protocol.ErrTruncated, stage: StageBody},
		"record crosses body length": {in: mutate(func(b []byte) []byte {
			b[4] = 10
			b[12], b[13] = 0, 0
			return b
		}), want: protocol.ErrFormat, stage: StageBody},
		"undefined slot": {in: mutate(func(b []byte) []byte {
			b[23] = 0x05
			return b
		}), want: protocol.ErrUndefinedSlot, stage: StageBody},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := BinaryToText(bytes.NewReader(tc.in), io.Discard, plainOptions())
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			var serr *StageError
			if !errors.As(err, &serr) || serr.Stage != tc.stage {
				t.Fatalf("expected %s stage error, got %v", tc.stage, err)
			}
		})
	}
}

func TestTextToBinaryErrors(t *testing.T) {
	testlog.Start(t)
	const def = "DEF: M_TYPE,0, M_NUM,0, FIELDS,1, DEV_FIELDS,0,,0,1,2,,\n"
	cases := map[string]struct {
		in   string
		want error
		line int
	}{
		"missing end":         {in: def + "DATA: CT,0, M_TYPE,00,,004,\n", want: protocol.ErrIncompleteStream, line: 2},
		"empty input":         {in: "", want: protocol.ErrIncompleteStream},
		"undefined slot":      {in: def + "DATA: CT,0, M_TYPE,03,,004,\nEND,\n", want: protocol.ErrUndefinedSlot, line: 2},
		"bad value":           {in: def + "DATA: CT,0, M_TYPE,00,,256,\nEND,\n", want: protocol.ErrFormat, line: 2},
		"value count":         {in: def + "DATA: CT,0, M_TYPE,00,,004,005,\nEND,\n", want: protocol.ErrFormat, line: 2},
		"late version":        {in: def + "FIT_PROFILE_VERSION, 100\nEND,\n", want: protocol.ErrFormat, line: 2},
		"content after end":   {in: def + "END,\nDATA: CT,0, M_TYPE,00,,004,\n", want: protocol.ErrFormat},
		"unknown keyword":     {in: "# header\nHEADER, 1\n", want: protocol.ErrFormat, line: 2},
		"zero size field def": {in: "DEF: M_TYPE,0, M_NUM,0, FIELDS,1, DEV_FIELDS,0,,0,0,2,,\nEND,\n", want: protocol.ErrFormat, line: 1},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var out seekBuffer
			_, err := TextToBinary(strings.NewReader(tc.in), &out, plainOptions())
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			var serr *StageError
			if !errors.As(err, &serr) {
				t.Fatalf("expected StageError, got %T", err)
			}
			if tc.line > 0 && serr.Line != tc.line {
				t.Fatalf("line=%d want %d (%v)", serr.Line, tc.line, err)
			}
		})
	}
}

func TestTextToBinaryVersionOverridesAndDefaults(t *testing.T) {
	testlog.Start(t)
	body := "DEF: M_TYPE,0, M_NUM,0, FIELDS,1, DEV_FIELDS,0,,0,1,2,,\nEND,\n"

	var out seekBuffer
	opts := Options{ProtocolVersion: 0x10, ProfileVersion: 100}
	if _, err := TextToBinary(strings.NewReader(body), &out, opts); err != nil {
		t.Fatalf("convert: %v", err)
	}
	h, err := protocol.DecodeHeader(out.buf[:protocol.HeaderSize])
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if h.ProtocolVersion != 0x10 || h.ProfileVersion != 100 || h.DataSize != 9 {
		t.Fatalf("unexpected header %+v", h)
	}

	out = seekBuffer{}
	if _, err := TextToBinary(strings.NewReader("FIT_PROFILE_VERSION, 2000\n"+body), &out, opts); err != nil {
		t.Fatalf("convert with override: %v", err)
	}
	if h, _ = protocol.DecodeHeader(out.buf[:protocol.HeaderSize]); h.ProfileVersion != 2000 || h.ProtocolVersion != 0x10 {
		t.Fatalf("override not applied: %+v", h)
	}
}

func TestCompressedRequestOnWideSlotWritesNormalHeader(t *testing.T) {
	testlog.Start(t)
	in := "DEF: M_TYPE,9, M_NUM,0, FIELDS,1, DEV_FIELDS,0,,0,1,2,,\n" +
		"DATA: CT,1, M_TYPE,09,,5,,004,\n" +
		"END,\n"
	got := toText(t, toBinary(t, in), plainOptions())
	if !strings.Contains(got, "DATA: CT,0, M_TYPE,09,,004,\n") {
		t.Fatalf("expected normal data line, got:\n%s", got)
	}
}

func TestFileHelpers(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "in.fit")
	csv := filepath.Join(dir, "out.csv")
	fit := filepath.Join(dir, "back.fit")
	if err := os.WriteFile(src, goldenBinary, 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	if _, err := FitToCSVFile(src, csv, plainOptions()); err != nil {
		t.Fatalf("fit to csv: %v", err)
	}
	if _, err := CSVToFitFile(csv, fit, plainOptions()); err != nil {
		t.Fatalf("csv to fit: %v", err)
	}
	back, err := os.ReadFile(fit)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(back, goldenBinary) {
		t.Fatalf("file round trip=% x", back)
	}

	if _, err := FitToCSVFile(filepath.Join(dir, "missing.fit"), csv, plainOptions()); !errors.Is(err, protocol.ErrIO) {
		t.Fatalf("expected ErrIO for missing input, got %v", err)
	}
}

func TestIndependentRunsDoNotShareState(t *testing.T) {
	testlog.Start(t)
	want := toBinary(t, mixedText)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var out seekBuffer
			if _, err := TextToBinary(strings.NewReader(mixedText), &out, plainOptions()); err != nil {
				errs <- err
				return
			}
			if !bytes.Equal(out.buf, want) {
				errs <- errors.New("concurrent run produced different bytes")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent run: %v", err)
	}
}

// framed wraps body in a header without header checksum and a trailing crc.
func framed(body []byte) []byte {
	h := protocol.NewStreamHeader()
	h.DataSize = uint32(len(body))
	out := protocol.EncodeHeader(h)
	out[12], out[13] = 0, 0
	out = append(out, body...)
	sum := crc.Calculate(body)
	return append(out, byte(sum), byte(sum>>8))
}

func TestBinaryToTextRejectsUnrepresentableRecords(t *testing.T) {
	testlog.Start(t)
	cases := map[string][]byte{
		"developer bit without fields": {0x60, 0, 0, 0, 0, 1, 0, 1, 2, 0, 0x00, 0x04},
		"reserved definition byte":     {0x40, 7, 0, 0, 0, 1, 0, 1, 2, 0x00, 0x04},
		"reserved header bit":          {0x40, 0, 0, 0, 0, 1, 0, 1, 2, 0x10, 0x04},
		"string data after terminator": {0x40, 0, 0, 0, 0, 1, 0, 4, 7, 0x00, 'a', 0, 'z', 0},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := BinaryToText(bytes.NewReader(framed(body)), io.Discard, plainOptions())
			if !errors.Is(err, protocol.ErrFormat) {
				t.Fatalf("expected ErrFormat, got %v", err)
			}
		})
	}
	if got := toText(t, framed(goldenBinary[protocol.HeaderSize:len(goldenBinary)-2]), plainOptions()); !strings.Contains(got, "DATA: CT,0, M_TYPE,00,,004,") {
		t.Fatalf("framed golden body did not decode:\n%s", got)
	}
}

type failingReader struct{ err error }

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }

func TestBinaryToTextLogsTrailingReadError(t *testing.T) {
	testlog.Start(t)
	var logs bytes.Buffer
	logger := zerolog.New(&logs)
	opts := plainOptions()
	opts.Logger = &logger

	src := io.MultiReader(bytes.NewReader(goldenBinary), failingReader{err: errors.New("device detached")})
	var out bytes.Buffer
	if _, err := BinaryToText(src, &out, opts); err != nil {
		t.Fatalf("convert: %v", err)
	}
	if out.String() != goldenText {
		t.Fatalf("text=%q", out.String())
	}
	if !strings.Contains(logs.String(), "device detached") || !strings.Contains(logs.String(), "ignoring data after trailing crc") {
		t.Fatalf("trailing read error not logged: %s", logs.String())
	}
}
