package hls

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Encoding is the text encoding declared by an ID3v2 text frame.
type Encoding string

const (
	EncodingLatin1  Encoding = "latin1"
	EncodingUTF16   Encoding = "utf16"
	EncodingUTF16BE Encoding = "utf16be"
	EncodingUTF8    Encoding = "utf8"
)

// Frame is one decoded ID3v2 text frame.
type Frame struct {
	ID       string   `json:"id"`
	Encoding Encoding `json:"encoding"`
	Text     string   `json:"text"`
}

// Tag holds the text frames of one ID3v2 tag.
type Tag struct {
	Version int
	Frames  []Frame
}

// Title returns the TIT2 frame text, if present.
func (t *Tag) Title() string { return t.frameText("TIT2") }

// Artist returns the TPE1 frame text, if present.
func (t *Tag) Artist() string { return t.frameText("TPE1") }

func (t *Tag) frameText(id string) string {
	for _, f := range t.Frames {
		if f.ID == id {
			return f.Text
		}
	}
	return ""
}

// byteCursor is a bounds-checked reader over a byte buffer. Every read
// reports whether enough bytes remained, so malformed tags can never
// index out of range or walk backwards.
type byteCursor struct {
	buf []byte
	off int
}

func (c *byteCursor) remaining() int { return len(c.buf) - c.off }

func (c *byteCursor) take(n int) ([]byte, bool) {
	if n < 0 || c.remaining() < n {
		return nil, false
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, true
}

func (c *byteCursor) skip(n int) bool {
	if n < 0 || c.remaining() < n {
		return false
	}
	c.off += n
	return true
}

func (c *byteCursor) u8() (byte, bool) {
	b, ok := c.take(1)
	if !ok {
		return 0, false
	}
	return b[0], true
}

// u32be reads a plain big-endian 32-bit length (ID3v2.3 frame sizes).
func (c *byteCursor) u32be() (int, bool) {
	b, ok := c.take(4)
	if !ok {
		return 0, false
	}
	return int(b[0])<<24 | int(b[1])<<16 | int(b[2])<<8 | int(b[3]), true
}

// synchsafe32 reads a synchsafe integer: 7 significant bits per byte with
// the MSB cleared (ID3v2 tag sizes, v2.4 frame sizes).
func (c *byteCursor) synchsafe32() (int, bool) {
	b, ok := c.take(4)
	if !ok {
		return 0, false
	}
	return int(b[0]&0x7f)<<21 | int(b[1]&0x7f)<<14 | int(b[2]&0x7f)<<7 | int(b[3]&0x7f), true
}

var id3Marker = []byte("ID3")

// ParseTag scans buf for an ID3v2.3 or v2.4 tag and decodes its text
// frames. A nil return means no parseable tag was found. Frames with a
// non-positive declared length terminate the scan immediately; that is
// what keeps a corrupt tag from looping forever.
func ParseTag(buf []byte) *Tag {
	for start := bytes.Index(buf, id3Marker); start != -1; start = nextMarker(buf, start) {
		if tag := parseTagAt(buf[start:]); tag != nil {
			return tag
		}
	}
	return nil
}

func nextMarker(buf []byte, prev int) int {
	idx := bytes.Index(buf[prev+1:], id3Marker)
	if idx == -1 {
		return -1
	}
	return prev + 1 + idx
}

// parseTagAt parses a candidate tag whose buffer begins with "ID3".
func parseTagAt(buf []byte) *Tag {
	c := &byteCursor{buf: buf}

	if !c.skip(3) { // marker
		return nil
	}
	version, ok := c.u8()
	if !ok || (version != 3 && version != 4) {
		return nil
	}
	if !c.skip(2) { // minor version + tag flags
		return nil
	}
	size, ok := c.synchsafe32()
	if !ok || size <= 0 {
		return nil
	}

	// Frames live inside the declared tag size, clamped to what we
	// actually buffered from the ranged segment read.
	end := c.off + size
	if end > len(buf) {
		end = len(buf)
	}

	tag := &Tag{Version: int(version)}

	for c.off+10 <= end {
		idBytes, ok := c.take(4)
		if !ok {
			break
		}
		id := string(idBytes)
		if !isFrameID(id) {
			break
		}

		var frameLen int
		if version == 4 {
			frameLen, ok = c.synchsafe32()
		} else {
			frameLen, ok = c.u32be()
		}
		if !ok || frameLen <= 0 {
			break
		}
		if !c.skip(2) { // frame flags
			break
		}
		if c.off+frameLen > end {
			break
		}

		body, _ := c.take(frameLen)
		if strings.HasPrefix(id, "T") {
			if frame, ok := decodeTextFrame(id, body); ok {
				tag.Frames = append(tag.Frames, frame)
			}
		}
	}

	if len(tag.Frames) == 0 {
		return nil
	}
	return tag
}

// isFrameID reports whether id looks like a 4-character ID3 frame id
// (uppercase letters and digits). Padding NULs after the last frame fail
// this check, which is how iteration terminates inside padded tags.
func isFrameID(id string) bool {
	for i := range len(id) {
		ch := id[i]
		if (ch < 'A' || ch > 'Z') && (ch < '0' || ch > '9') {
			return false
		}
	}
	return true
}

// decodeTextFrame decodes a T* frame body: a 1-byte encoding marker
// followed by text, with trailing NUL padding stripped.
func decodeTextFrame(id string, body []byte) (Frame, bool) {
	if len(body) < 2 {
		return Frame{}, false
	}

	var enc Encoding
	var decoder *encoding.Decoder
	switch body[0] {
	case 0:
		enc = EncodingLatin1
		decoder = charmap.ISO8859_1.NewDecoder()
	case 1:
		enc = EncodingUTF16
		decoder = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	case 2:
		enc = EncodingUTF16BE
		decoder = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	case 3:
		enc = EncodingUTF8
	default:
		return Frame{}, false
	}

	data := body[1:]
	var text string
	if decoder == nil {
		text = string(data)
	} else {
		decoded, err := decoder.Bytes(data)
		if err != nil {
			return Frame{}, false
		}
		text = string(decoded)
	}

	text = strings.TrimRight(text, "\x00")
	text = strings.TrimSpace(text)
	if text == "" {
		return Frame{}, false
	}

	return Frame{ID: id, Encoding: enc, Text: text}, true
}
