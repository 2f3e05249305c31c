// Package convert drives one conversion run in either direction.
//
// A run moves through header, body and trailer stages. The first error
// aborts the run; output already written is left as it is.
package convert
