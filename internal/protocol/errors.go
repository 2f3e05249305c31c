package protocol

import "errors"

var (
	ErrFormat           = errors.New("protocol: format error")
	ErrChecksum         = errors.New("protocol: checksum mismatch")
	ErrUndefinedSlot    = errors.New("protocol: undefined local message type")
	ErrTruncated        = errors.New("protocol: truncated data")
	ErrIncompleteStream = errors.New("protocol: incomplete stream")
	ErrIO               = errors.New("protocol: i/o failure")
)
