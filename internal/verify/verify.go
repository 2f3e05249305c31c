// Package verify compares a conversion output against a reference file.
package verify

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"

	"github.com/danmuck/fitconv/internal/protocol"
)

// Result describes one comparison. FirstDiff is -1 when the files match.
type Result struct {
	Match           bool
	OutputDigest    string
	ReferenceDigest string
	OutputSize      int64
	ReferenceSize   int64
	FirstDiff       int64
}

func (r Result) String() string {
	if r.Match {
		return fmt.Sprintf("match blake3:%s (%d bytes)", r.OutputDigest, r.OutputSize)
	}
	return fmt.Sprintf("differ at byte %d: output blake3:%s (%d bytes), reference blake3:%s (%d bytes)",
		r.FirstDiff, r.OutputDigest, r.OutputSize, r.ReferenceDigest, r.ReferenceSize)
}

// Digest returns the hex BLAKE3-256 digest of r and the number of bytes read.
func Digest(r io.Reader) (string, int64, error) {
	h := blake3.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

func digestFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("%w: open %s: %w", protocol.ErrIO, path, err)
	}
	defer f.Close()
	sum, n, err := Digest(f)
	if err != nil {
		return "", 0, fmt.Errorf("%w: read %s: %w", protocol.ErrIO, path, err)
	}
	return sum, n, nil
}

// CompareFiles digests both files and, when they differ, locates the
// first differing byte offset.
func CompareFiles(output, reference string) (Result, error) {
	res := Result{FirstDiff: -1}
	var err error
	if res.OutputDigest, res.OutputSize, err = digestFile(output); err != nil {
		return Result{}, err
	}
	if res.ReferenceDigest, res.ReferenceSize, err = digestFile(reference); err != nil {
		return Result{}, err
	}
	if res.OutputDigest == res.ReferenceDigest && res.OutputSize == res.ReferenceSize {
		res.Match = true
		return res, nil
	}
	if res.FirstDiff, err = firstDiff(output, reference); err != nil {
		return Result{}, err
	}
	return res, nil
}

// firstDiff returns the offset of the first byte that differs. A file
// that is a strict prefix of the other differs at its own length.
func firstDiff(a, b string) (int64, error) {
	fa, err := os.Open(a)
	if err != nil {
		return 0, fmt.Errorf("%w: open %s: %w", protocol.ErrIO, a, err)
	}
	defer fa.Close()
	fb, err := os.Open(b)
	if err != nil {
		return 0, fmt.Errorf("%w: open %s: %w", protocol.ErrIO, b, err)
	}
	defer fb.Close()

	ra, rb := bufio.NewReader(fa), bufio.NewReader(fb)
	for off := int64(0); ; off++ {
		x, errA := ra.ReadByte()
		y, errB := rb.ReadByte()
		if errA == io.EOF && errB == io.EOF {
			return -1, nil
		}
		if errA != nil && errA != io.EOF {
			return 0, fmt.Errorf("%w: read %s: %w", protocol.ErrIO, a, errA)
		}
		if errB != nil && errB != io.EOF {
			return 0, fmt.Errorf("%w: read %s: %w", protocol.ErrIO, b, errB)
		}
		if errA != nil || errB != nil || x != y {
			return off, nil
		}
	}
}
