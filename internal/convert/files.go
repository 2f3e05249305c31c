package convert

import (
	"fmt"
	"os"

	"github.com/danmuck/fitconv/internal/protocol"
)

// FitToCSVFile converts the binary file at src into a new text file at
// dst. Both files are closed on every path out.
func FitToCSVFile(src, dst string, opts Options) (stats Stats, err error) {
	in, err := os.Open(src)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: open input: %w", protocol.ErrIO, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: create output: %w", protocol.ErrIO, err)
	}
	defer closeOutput(out, &err)

	return BinaryToText(in, out, opts)
}

// CSVToFitFile converts the text file at src into a new binary file at
// dst. Both files are closed on every path out.
func CSVToFitFile(src, dst string, opts Options) (stats Stats, err error) {
	in, err := os.Open(src)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: open input: %w", protocol.ErrIO, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: create output: %w", protocol.ErrIO, err)
	}
	defer closeOutput(out, &err)

	return TextToBinary(in, out, opts)
}

func closeOutput(f *os.File, err *error) {
	if cerr := f.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("%w: close output: %w", protocol.ErrIO, cerr)
	}
}
