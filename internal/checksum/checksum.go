// Package checksum computes content digests recorded on stored assets.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Reader returns the hex-encoded SHA-256 digest of everything read from r.
func Reader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Writer is an io.Writer that digests what passes through it.
type Writer struct {
	h hash.Hash
	n int64
}

// NewWriter returns an empty digesting writer.
func NewWriter() *Writer { return &Writer{h: sha256.New()} }

func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.h.Write(p)
	w.n += int64(n)
	return n, err
}

// Sum returns the hex digest of the bytes written so far.
func (w *Writer) Sum() string { return hex.EncodeToString(w.h.Sum(nil)) }

// Size returns the number of bytes written so far.
func (w *Writer) Size() int64 { return w.n }
