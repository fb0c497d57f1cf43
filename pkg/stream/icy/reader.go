// Package icy implements the Shoutcast/Icecast inline-metadata
// sub-protocol: metaint bytes of audio alternating with one length-prefixed
// metadata block of Latin-1 text.
package icy

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// maxBlockLen is the protocol maximum: the length byte times 16.
const maxBlockLen = 255 * 16

// Reader is an explicit cursor over an ICY byte stream. It pulls exactly
// as many bytes as one audio segment plus one metadata block needs; the
// caller owns closing the underlying stream.
type Reader struct {
	src     io.Reader
	metaInt int
}

// NewReader wraps src, whose server advertised the given icy-metaint
// interval. metaInt must be positive; a stream without the header does
// not carry inline metadata at all.
func NewReader(src io.Reader, metaInt int) (*Reader, error) {
	if metaInt <= 0 {
		return nil, fmt.Errorf("icy: non-positive metadata interval %d", metaInt)
	}
	return &Reader{src: src, metaInt: metaInt}, nil
}

// ReadBlock consumes one audio segment and returns the metadata block that
// follows it, parsed into key/value pairs. An empty (zero-length) block
// returns an empty map; callers typically loop until StreamTitle appears
// or their deadline fires.
func (r *Reader) ReadBlock() (map[string]string, error) {
	// Discard the audio payload preceding the metadata block.
	if _, err := io.CopyN(io.Discard, r.src, int64(r.metaInt)); err != nil {
		return nil, fmt.Errorf("icy: short read before metadata block: %w", err)
	}

	var lenByte [1]byte
	if _, err := io.ReadFull(r.src, lenByte[:]); err != nil {
		return nil, fmt.Errorf("icy: missing metadata length byte: %w", err)
	}

	blockLen := int(lenByte[0]) * 16
	if blockLen == 0 {
		return map[string]string{}, nil
	}
	if blockLen > maxBlockLen {
		return nil, fmt.Errorf("icy: metadata block length %d exceeds protocol maximum", blockLen)
	}

	block := make([]byte, blockLen)
	if _, err := io.ReadFull(r.src, block); err != nil {
		return nil, fmt.Errorf("icy: short metadata block: %w", err)
	}

	return ParseBlock(block)
}

// ParseBlock decodes a raw metadata block. The payload is Latin-1 text of
// the form StreamTitle='...';StreamUrl='...'; padded with NULs. Decoding
// as Latin-1 follows the historical convention; stations that emit UTF-8
// will come through mojibake'd, which is a known limitation rather than
// something this parser guesses at.
func ParseBlock(block []byte) (map[string]string, error) {
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(block)
	if err != nil {
		return nil, fmt.Errorf("icy: latin-1 decode failed: %w", err)
	}

	text := strings.TrimRight(string(decoded), "\x00")
	pairs := make(map[string]string)

	// The pair delimiter on the wire is quote-then-semicolon, not a bare
	// semicolon: quoted values may themselves contain semicolons.
	for _, part := range strings.Split(text, "';") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		value = strings.TrimPrefix(value, "'")
		// A final pair missing its terminating semicolon keeps its
		// closing quote through the split.
		value = strings.TrimSuffix(value, "'")
		pairs[strings.TrimSpace(key)] = value
	}

	return pairs, nil
}

// ParseStreamTitle splits a StreamTitle value on its first " - " into
// artist and title. Without a separator the whole value is the title;
// artist is never guessed.
func ParseStreamTitle(streamTitle string) (artist, title string) {
	s := strings.Trim(strings.TrimSpace(streamTitle), "'")
	if s == "" {
		return "", ""
	}

	if left, right, ok := strings.Cut(s, " - "); ok {
		left = strings.TrimSpace(left)
		right = strings.TrimSpace(right)
		if left != "" && right != "" {
			return left, right
		}
	}

	return "", s
}
