// Package charset decodes file bytes of unknown encoding into UTF-8 text.
//
// Resolution is a three-tier fallback chain: strict UTF-8 first, then
// detection (BOM sniffing, then a confidence-scored statistical detector),
// then lossy replacement. It never fails; every input yields usable text.
package charset

import (
	"bytes"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// Tier identifies which stage of the fallback chain produced the text.
type Tier int

const (
	TierUTF8 Tier = iota
	TierDetected
	TierReplacement
)

// String returns the tier name for reporting.
func (t Tier) String() string {
	switch t {
	case TierUTF8:
		return "utf-8"
	case TierDetected:
		return "detected"
	case TierReplacement:
		return "replacement"
	default:
		return "unknown"
	}
}

// minConfidence is the detector acceptance threshold (chardet scores 0-100).
const minConfidence = 50

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Resolver turns raw file bytes into text.
type Resolver struct {
	detector *chardet.Detector
}

// NewResolver creates a resolver with a statistical text detector.
func NewResolver() *Resolver {
	return &Resolver{detector: chardet.NewTextDetector()}
}

// Decode resolves raw bytes to text. It reports which tier succeeded and
// never returns an error; the worst case substitutes U+FFFD for byte
// sequences nothing could decode.
func (r *Resolver) Decode(raw []byte) (string, Tier) {
	if utf8.Valid(raw) {
		return string(bytes.TrimPrefix(raw, utf8BOM)), TierUTF8
	}
	if text, ok := r.decodeDetected(raw); ok {
		return text, TierDetected
	}
	return string(bytes.ToValidUTF8(raw, []byte("�"))), TierReplacement
}

// decodeDetected tries BOM sniffing first, then the statistical detector.
// A detector guess is accepted only above minConfidence and only when the
// named charset resolves to a known encoding and decodes to valid UTF-8.
func (r *Resolver) decodeDetected(raw []byte) (string, bool) {
	if enc, bomSize, ok := sniffBOM(raw); ok {
		if out, err := enc.NewDecoder().Bytes(raw[bomSize:]); err == nil && utf8.Valid(out) {
			return string(out), true
		}
	}

	result, err := r.detector.DetectBest(raw)
	if err != nil || result == nil || result.Confidence <= minConfidence {
		return "", false
	}
	enc, err := htmlindex.Get(result.Charset)
	if err != nil {
		return "", false
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil || !utf8.Valid(out) {
		return "", false
	}
	return string(out), true
}

// sniffBOM recognizes UTF-16/UTF-32 byte order marks. The 4-byte UTF-32
// marks must be checked before the 2-byte UTF-16 ones: FF FE 00 00 also
// begins with the UTF-16LE mark.
func sniffBOM(raw []byte) (encoding.Encoding, int, bool) {
	switch {
	case bytes.HasPrefix(raw, []byte{0x00, 0x00, 0xFE, 0xFF}):
		return utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM), 4, true
	case bytes.HasPrefix(raw, []byte{0xFF, 0xFE, 0x00, 0x00}):
		return utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM), 4, true
	case bytes.HasPrefix(raw, []byte{0xFE, 0xFF}):
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), 2, true
	case bytes.HasPrefix(raw, []byte{0xFF, 0xFE}):
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), 2, true
	}
	return nil, 0, false
}
