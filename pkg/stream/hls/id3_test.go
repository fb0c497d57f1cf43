package hls

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// synchsafe encodes n as a 4-byte synchsafe integer.
func synchsafe(n int) []byte {
	return []byte{
		byte(n >> 21 & 0x7f),
		byte(n >> 14 & 0x7f),
		byte(n >> 7 & 0x7f),
		byte(n & 0x7f),
	}
}

func u32(n int) []byte {
	return []byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
}

// buildFrame assembles one text frame with the given encoding byte and body.
func buildFrame(id string, version int, body []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(id)
	if version == 4 {
		buf.Write(synchsafe(len(body)))
	} else {
		buf.Write(u32(len(body)))
	}
	buf.Write([]byte{0, 0}) // frame flags
	buf.Write(body)
	return buf.Bytes()
}

// buildTag assembles an ID3v2 tag around the given frames.
func buildTag(version int, frames ...[]byte) []byte {
	var body bytes.Buffer
	for _, f := range frames {
		body.Write(f)
	}

	var buf bytes.Buffer
	buf.WriteString("ID3")
	buf.WriteByte(byte(version))
	buf.Write([]byte{0, 0}) // minor version, tag flags
	buf.Write(synchsafe(body.Len()))
	buf.Write(body.Bytes())
	return buf.Bytes()
}

func textFrame(id string, version int, encByte byte, text []byte) []byte {
	body := append([]byte{encByte}, text...)
	return buildFrame(id, version, body)
}

func TestParseTagV23(t *testing.T) {
	tag := buildTag(3,
		textFrame("TIT2", 3, 0, []byte("Anyone")),
		textFrame("TPE1", 3, 0, []byte("Snow Tha Product")),
	)

	parsed := ParseTag(tag)
	require.NotNil(t, parsed)
	assert.Equal(t, 3, parsed.Version)
	assert.Equal(t, "Anyone", parsed.Title())
	assert.Equal(t, "Snow Tha Product", parsed.Artist())
}

func TestParseTagV24SynchsafeFrameSizes(t *testing.T) {
	tag := buildTag(4,
		textFrame("TIT2", 4, 3, []byte("Título")),
	)

	parsed := ParseTag(tag)
	require.NotNil(t, parsed)
	assert.Equal(t, 4, parsed.Version)
	assert.Equal(t, "Título", parsed.Title())
}

func TestParseTagEmbeddedMidBuffer(t *testing.T) {
	// Timed ID3 tags sit inside transport-stream packets, not at offset 0.
	var buf bytes.Buffer
	buf.Write(bytes.Repeat([]byte{0x47, 0x1F, 0xFF}, 100))
	buf.Write(buildTag(3, textFrame("TIT2", 3, 0, []byte("Mid Buffer"))))
	buf.Write(bytes.Repeat([]byte{0xFF}, 64))

	parsed := ParseTag(buf.Bytes())
	require.NotNil(t, parsed)
	assert.Equal(t, "Mid Buffer", parsed.Title())
}

func TestParseTagUTF16(t *testing.T) {
	// "Hi" in UTF-16LE with BOM
	utf16le := []byte{0xFF, 0xFE, 'H', 0, 'i', 0}
	tag := buildTag(3, textFrame("TIT2", 3, 1, utf16le))

	parsed := ParseTag(tag)
	require.NotNil(t, parsed)
	assert.Equal(t, "Hi", parsed.Title())
	assert.Equal(t, EncodingUTF16, parsed.Frames[0].Encoding)
}

func TestParseTagUTF16BE(t *testing.T) {
	utf16be := []byte{0, 'H', 0, 'i'}
	tag := buildTag(4, textFrame("TIT2", 4, 2, utf16be))

	parsed := ParseTag(tag)
	require.NotNil(t, parsed)
	assert.Equal(t, "Hi", parsed.Title())
}

func TestParseTagLatin1Frame(t *testing.T) {
	tag := buildTag(3, textFrame("TPE1", 3, 0, []byte("Caf\xe9")))

	parsed := ParseTag(tag)
	require.NotNil(t, parsed)
	assert.Equal(t, "Café", parsed.Artist())
	assert.Equal(t, EncodingLatin1, parsed.Frames[0].Encoding)
}

func TestParseTagZeroLengthFrameTerminates(t *testing.T) {
	good := textFrame("TIT2", 3, 0, []byte("Before"))
	zero := buildFrame("TPE1", 3, nil) // declared length 0
	after := textFrame("TALB", 3, 0, []byte("Never Reached"))

	parsed := ParseTag(buildTag(3, good, zero, after))
	require.NotNil(t, parsed)
	assert.Equal(t, "Before", parsed.Title())

	// The zero-length frame stops iteration; TALB must not appear.
	for _, f := range parsed.Frames {
		assert.NotEqual(t, "TALB", f.ID)
	}
}

func TestParseTagPaddingTerminates(t *testing.T) {
	frame := textFrame("TIT2", 3, 0, []byte("Padded"))

	var body bytes.Buffer
	body.Write(frame)
	body.Write(make([]byte, 64)) // NUL padding after last frame

	var buf bytes.Buffer
	buf.WriteString("ID3")
	buf.Write([]byte{3, 0, 0})
	buf.Write(synchsafe(body.Len()))
	buf.Write(body.Bytes())

	parsed := ParseTag(buf.Bytes())
	require.NotNil(t, parsed)
	assert.Len(t, parsed.Frames, 1)
	assert.Equal(t, "Padded", parsed.Title())
}

func TestParseTagRejectsUnsupportedVersion(t *testing.T) {
	tag := buildTag(2, textFrame("TIT2", 3, 0, []byte("Old")))
	assert.Nil(t, ParseTag(tag))
}

func TestParseTagNoMarker(t *testing.T) {
	assert.Nil(t, ParseTag([]byte("just some audio bytes with no tag")))
	assert.Nil(t, ParseTag(nil))
}

func TestParseTagTruncated(t *testing.T) {
	tag := buildTag(3, textFrame("TIT2", 3, 0, []byte("Full Title Here")))

	// Cutting into the frame body must not panic; whether a partial tag
	// parses depends on where the cut lands.
	for i := range len(tag) {
		ParseTag(tag[:i])
	}
}

func TestParseTagIgnoresNonTextFrames(t *testing.T) {
	priv := buildFrame("PRIV", 3, []byte("owner\x00payload"))
	tit2 := textFrame("TIT2", 3, 0, []byte("After Binary"))

	parsed := ParseTag(buildTag(3, priv, tit2))
	require.NotNil(t, parsed)
	assert.Equal(t, "After Binary", parsed.Title())
	assert.Len(t, parsed.Frames, 1)
}

func TestDecodeTextFrameUnknownEncoding(t *testing.T) {
	_, ok := decodeTextFrame("TIT2", []byte{9, 'x'})
	assert.False(t, ok)
}
