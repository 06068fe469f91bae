package internal

import "fmt"

// bytesPerPixel is the RGBA stride of the output buffer.
const bytesPerPixel = 4

// Converter drives a Mapper over whole frames, producing RGBA pixel buffers.
//
// Buffer ownership:
//   - The converter owns one private pixel buffer, allocated at construction
//     and reused for every frame (zero-alloc steady state).
//   - Convert returns a view of that buffer; the view is valid until the
//     next Convert call. Consumers that outlive the next frame must take
//     CopyOut instead (same immutability contract as shared frames).
//
// Geometry:
//   - Width/height are fixed for the lifetime of the stream.
//   - A frame whose geometry disagrees is rejected whole with
//     ErrDimensionMismatch; the previous buffer contents stay intact, so a
//     renderer holding the view never observes a partial frame.
//
// Not safe for concurrent use: one converter per stream, driven from that
// stream's frame callback, which is single-flight by construction.
type Converter struct {
	width  int
	height int
	mapper Mapper
	pixels []byte
}

// NewConverter allocates a converter for a fixed frame geometry.
func NewConverter(width, height int, mapper Mapper) (*Converter, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("pixelpipe: invalid geometry %dx%d", width, height)
	}
	if mapper == nil {
		return nil, fmt.Errorf("pixelpipe: nil mapper")
	}
	return &Converter{
		width:  width,
		height: height,
		mapper: mapper,
		pixels: make([]byte, width*height*bytesPerPixel),
	}, nil
}

// Convert maps every sample of the frame to a grayscale RGBA pixel.
//
// Post-conditions on success:
//   - returned buffer length == 4 * len(frame.Samples)
//   - every alpha byte is 255
//   - bit-identical output for bit-identical input (idempotent)
//
// On geometry mismatch the frame is dropped: no pixel is written and the
// error wraps ErrDimensionMismatch.
func (c *Converter) Convert(frame *RawFrame) ([]byte, error) {
	if err := frame.Validate(); err != nil {
		return nil, err
	}
	if frame.Width != c.width || frame.Height != c.height {
		return nil, fmt.Errorf("%w: frame %dx%d, converter %dx%d",
			ErrDimensionMismatch, frame.Width, frame.Height, c.width, c.height)
	}

	for i, s := range frame.Samples {
		v := c.mapper.MapSample(s)
		o := i * bytesPerPixel
		c.pixels[o] = v
		c.pixels[o+1] = v
		c.pixels[o+2] = v
		c.pixels[o+3] = 255
	}

	return c.pixels, nil
}

// CopyOut returns a fresh copy of the current pixel buffer for consumers
// that need ownership beyond the next frame.
func (c *Converter) CopyOut() []byte {
	out := make([]byte, len(c.pixels))
	copy(out, c.pixels)
	return out
}

// Width returns the fixed frame width in pixels.
func (c *Converter) Width() int { return c.width }

// Height returns the fixed frame height in pixels.
func (c *Converter) Height() int { return c.height }

// PixelLen returns the byte length of the RGBA output buffer.
func (c *Converter) PixelLen() int { return len(c.pixels) }
