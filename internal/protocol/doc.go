// Package protocol owns the FIT wire contract and its parsing primitives.
//
// Ownership boundary:
// - stream header encode/decode
// - record header discriminator
// - per-base-type value codecs
// - local definition table and record codec
//
// The package never interprets field semantics; it only knows each
// field's declared size and base type.
package protocol
