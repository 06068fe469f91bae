package internal

import "time"

// Frame is a finished RGBA pixel buffer published to views.
//
// IMMUTABILITY CONTRACT:
//   - The publisher MUST NOT modify Pixels after calling Publish (the
//     buffer is shared by reference with every view; publish a CopyOut of
//     the converter's working buffer, never the working buffer itself).
//   - Views MUST NOT modify Pixels (read-only access).
//
// Invariant: len(Pixels) == Width*Height*4, every alpha byte 255 - both
// guaranteed by the pixelpipe converter that produced the buffer.
type Frame struct {
	// Pixels is the RGBA buffer, row-major, alpha always 255.
	Pixels []byte

	// Width of the frame in pixels
	Width int

	// Height of the frame in pixels
	Height int

	// Timestamp is when the raw frame was captured (source time).
	Timestamp time.Time

	// Seq is a global sequence number assigned by the feed during delivery.
	// Monotonically increasing; used for drop detection.
	Seq uint64

	// SourceSeq is the acquisition-layer sequence of the raw frame this
	// buffer was converted from (gaps here mean capture-side drops).
	SourceSeq uint64
}
