package netcast

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Wire format: a fixed 16-byte header followed by the zstd-compressed
// presence mask. All multi-byte fields are little-endian.
//
//	offset  size  field
//	0       2     magic 0x4B53
//	2       1     version
//	3       1     flags (bit 0: payload is compressed)
//	4       8     frame sequence number
//	12      2     width in pixels
//	14      2     height in pixels
const (
	wireMagic   uint16 = 0x4B53
	wireVersion uint8  = 1
	headerSize         = 16

	flagCompressed uint8 = 1 << 0
)

var (
	// ErrBadMagic indicates the datagram does not carry a mask.
	ErrBadMagic = errors.New("netcast: bad magic")
	// ErrBadVersion indicates a wire format this build does not speak.
	ErrBadVersion = errors.New("netcast: unsupported wire version")
	// ErrTruncated indicates a datagram shorter than its header claims.
	ErrTruncated = errors.New("netcast: truncated datagram")
)

// Mask is a decoded presence mask: one bit per pixel, row-major,
// LSB-first within each byte.
type Mask struct {
	Bits   []byte
	Width  int
	Height int
	Seq    uint64
}

// At reports whether the pixel at (x, y) is present.
func (m Mask) At(x, y int) bool {
	idx := y*m.Width + x
	if idx/8 >= len(m.Bits) {
		return false
	}
	return m.Bits[idx/8]&(1<<(idx%8)) != 0
}

// BuildMask packs a depth sample plane into a presence mask. A pixel is
// present when its sample is non-zero and at or below the threshold;
// zero samples are sensor no-reading sentinels and always come out clear.
func BuildMask(samples []uint16, width, height int, threshold uint16) Mask {
	bits := make([]byte, (len(samples)+7)/8)
	for idx, value := range samples {
		if value == 0 || value > threshold {
			continue
		}
		bits[idx/8] |= 1 << (idx % 8)
	}
	return Mask{Bits: bits, Width: width, Height: height}
}

// Codec encodes and decodes mask datagrams. One codec is safe for
// concurrent use; the underlying zstd coders are stateless in the
// EncodeAll/DecodeAll mode used here.
type Codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewCodec creates a codec tuned for per-frame latency over ratio.
func NewCodec() (*Codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("netcast: failed to create encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("netcast: failed to create decoder: %w", err)
	}
	return &Codec{enc: enc, dec: dec}, nil
}

// Close releases the compressor state.
func (c *Codec) Close() {
	c.enc.Close()
	c.dec.Close()
}

// Encode serializes a mask into a single datagram payload.
func (c *Codec) Encode(m Mask) []byte {
	packet := make([]byte, headerSize, headerSize+len(m.Bits))
	binary.LittleEndian.PutUint16(packet[0:2], wireMagic)
	packet[2] = wireVersion
	packet[3] = flagCompressed
	binary.LittleEndian.PutUint64(packet[4:12], m.Seq)
	binary.LittleEndian.PutUint16(packet[12:14], uint16(m.Width))
	binary.LittleEndian.PutUint16(packet[14:16], uint16(m.Height))

	return c.enc.EncodeAll(m.Bits, packet)
}

// Decode parses a datagram back into a mask.
func (c *Codec) Decode(packet []byte) (Mask, error) {
	if len(packet) < headerSize {
		return Mask{}, fmt.Errorf("%w: %d bytes", ErrTruncated, len(packet))
	}
	if binary.LittleEndian.Uint16(packet[0:2]) != wireMagic {
		return Mask{}, ErrBadMagic
	}
	if packet[2] != wireVersion {
		return Mask{}, fmt.Errorf("%w: %d", ErrBadVersion, packet[2])
	}

	m := Mask{
		Seq:    binary.LittleEndian.Uint64(packet[4:12]),
		Width:  int(binary.LittleEndian.Uint16(packet[12:14])),
		Height: int(binary.LittleEndian.Uint16(packet[14:16])),
	}

	payload := packet[headerSize:]
	if packet[3]&flagCompressed != 0 {
		want := (m.Width*m.Height + 7) / 8
		bits, err := c.dec.DecodeAll(payload, make([]byte, 0, want))
		if err != nil {
			return Mask{}, fmt.Errorf("netcast: failed to decompress mask: %w", err)
		}
		m.Bits = bits
	} else {
		m.Bits = payload
	}

	if got, want := len(m.Bits), (m.Width*m.Height+7)/8; got != want {
		return Mask{}, fmt.Errorf("%w: mask is %d bytes, geometry %dx%d needs %d",
			ErrTruncated, got, m.Width, m.Height, want)
	}
	return m, nil
}
