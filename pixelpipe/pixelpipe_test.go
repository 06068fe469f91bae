package pixelpipe_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/e7canasta/kinect-sense/pixelpipe"
)

// TestInfraredMapperBounds verifies the infrared output byte stays inside
// [3, 255] for every possible 16-bit sample (the [0.01, 1.0] clamp x 255).
func TestInfraredMapperBounds(t *testing.T) {
	m := pixelpipe.NewInfraredMapper(pixelpipe.DefaultInfraredCalibration())

	for s := 0; s <= 65535; s++ {
		v := m.MapSample(uint16(s))
		if v < 3 {
			t.Fatalf("sample %d mapped to %d (below clamp floor 3)", s, v)
		}
	}

	// Fully dark clamps to the floor, fully lit saturates.
	if v := m.MapSample(0); v != 3 {
		t.Errorf("Expected sample 0 -> 3, got %d", v)
	}
	if v := m.MapSample(65535); v != 255 {
		t.Errorf("Expected sample 65535 -> 255, got %d", v)
	}
}

// TestInfraredMapperPartialCalibration verifies each unset calibration
// field falls back to its default on its own: setting only OutputMax must
// not silently drop the 0.01 clamp floor.
func TestInfraredMapperPartialCalibration(t *testing.T) {
	m := pixelpipe.NewInfraredMapper(pixelpipe.InfraredCalibration{OutputMax: 1.0})

	if v := m.MapSample(0); v != 3 {
		t.Errorf("Expected sample 0 -> 3 (defaulted clamp floor), got %d", v)
	}
	if v := m.MapSample(65535); v != 255 {
		t.Errorf("Expected sample 65535 -> 255, got %d", v)
	}
}

// TestInfraredMapperMonotonic verifies the transfer curve never decreases:
// brighter photon counts must not render darker.
func TestInfraredMapperMonotonic(t *testing.T) {
	m := pixelpipe.NewInfraredMapper(pixelpipe.DefaultInfraredCalibration())

	prev := m.MapSample(0)
	for s := 1; s <= 65535; s++ {
		v := m.MapSample(uint16(s))
		if v < prev {
			t.Fatalf("transfer curve decreased at sample %d: %d -> %d", s, prev, v)
		}
		prev = v
	}
}

// TestDepthMapperInRange verifies in-range depths map to floor(depth/31).
func TestDepthMapperInRange(t *testing.T) {
	m := pixelpipe.NewDepthMapper(0, 0)

	cases := []struct {
		depth uint16
		want  uint8
	}{
		{0, 0},
		{30, 0},
		{31, 1},
		{310, 10},
		{1000, 32},
		{7905, 255},
	}
	for _, tc := range cases {
		if got := m.MapSample(tc.depth); got != tc.want {
			t.Errorf("depth %d: expected %d, got %d", tc.depth, tc.want, got)
		}
	}
}

// TestDepthMapperSentinelSuppression verifies out-of-range depths map to
// exactly 0, never to a clamped nonzero floor. The common "no return"
// sentinel of 0 must render black once a reliable minimum is set.
func TestDepthMapperSentinelSuppression(t *testing.T) {
	m := pixelpipe.NewDepthMapper(500, 4500)

	for _, depth := range []uint16{0, 1, 31, 310, 499} {
		if got := m.MapSample(depth); got != 0 {
			t.Errorf("depth %d below reliable min: expected 0, got %d", depth, got)
		}
	}
	for _, depth := range []uint16{4501, 8000, 65535} {
		if got := m.MapSample(depth); got != 0 {
			t.Errorf("depth %d above reliable max: expected 0, got %d", depth, got)
		}
	}

	// Boundary depths are reliable.
	if got := m.MapSample(500); got != 16 {
		t.Errorf("depth 500: expected 16, got %d", got)
	}
	if got := m.MapSample(4500); got != 145 {
		t.Errorf("depth 4500: expected 145, got %d", got)
	}
}

// TestDepthMapperRangeRefresh verifies SetReliableRange takes effect on the
// next sample (the minimum is sensor-reported and varies per frame).
func TestDepthMapperRangeRefresh(t *testing.T) {
	m := pixelpipe.NewDepthMapper(500, 0)

	if got := m.MapSample(400); got != 0 {
		t.Fatalf("depth 400 with min 500: expected 0, got %d", got)
	}

	m.SetReliableRange(300, 0)
	if got := m.MapSample(400); got != 12 {
		t.Errorf("depth 400 with min 300: expected 12, got %d", got)
	}

	min, max := m.ReliableRange()
	if min != 300 || max != 65535 {
		t.Errorf("Expected range [300, 65535], got [%d, %d]", min, max)
	}
}

// TestConvertAllZeroInfraredFrame is the end-to-end scenario: a 512x424
// infrared frame of all-zero samples produces a 4*512*424-byte buffer where
// every RGB triplet is (3,3,3) and every alpha byte is 255.
func TestConvertAllZeroInfraredFrame(t *testing.T) {
	const width, height = 512, 424

	conv, err := pixelpipe.NewConverter(width, height,
		pixelpipe.NewInfraredMapper(pixelpipe.DefaultInfraredCalibration()))
	if err != nil {
		t.Fatalf("NewConverter failed: %v", err)
	}

	frame := &pixelpipe.RawFrame{
		Samples: make([]uint16, width*height),
		Width:   width,
		Height:  height,
	}

	pixels, err := conv.Convert(frame)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	if want := 4 * width * height; len(pixels) != want {
		t.Fatalf("Expected %d bytes, got %d", want, len(pixels))
	}
	for i := 0; i < len(pixels); i += 4 {
		if pixels[i] != 3 || pixels[i+1] != 3 || pixels[i+2] != 3 || pixels[i+3] != 255 {
			t.Fatalf("pixel %d: expected (3,3,3,255), got (%d,%d,%d,%d)",
				i/4, pixels[i], pixels[i+1], pixels[i+2], pixels[i+3])
		}
	}
}

// TestConvertIdempotent verifies converting the same frame twice produces
// bit-identical buffers.
func TestConvertIdempotent(t *testing.T) {
	conv, err := pixelpipe.NewConverter(8, 4, pixelpipe.NewDepthMapper(500, 4500))
	if err != nil {
		t.Fatalf("NewConverter failed: %v", err)
	}

	frame := &pixelpipe.RawFrame{Width: 8, Height: 4, Samples: make([]uint16, 32)}
	for i := range frame.Samples {
		frame.Samples[i] = uint16(i * 199)
	}

	first, err := conv.Convert(frame)
	if err != nil {
		t.Fatalf("first Convert failed: %v", err)
	}
	snapshot := append([]byte(nil), first...)

	second, err := conv.Convert(frame)
	if err != nil {
		t.Fatalf("second Convert failed: %v", err)
	}

	if !bytes.Equal(snapshot, second) {
		t.Error("Convert is not idempotent: second pass differs from first")
	}
}

// TestConvertDimensionMismatch verifies a frame of wrong geometry always
// fails with ErrDimensionMismatch and leaves the previous buffer untouched.
func TestConvertDimensionMismatch(t *testing.T) {
	conv, err := pixelpipe.NewConverter(4, 4, pixelpipe.NewDepthMapper(0, 0))
	if err != nil {
		t.Fatalf("NewConverter failed: %v", err)
	}

	good := &pixelpipe.RawFrame{Width: 4, Height: 4, Samples: make([]uint16, 16)}
	for i := range good.Samples {
		good.Samples[i] = uint16(31 * (i + 1))
	}
	pixels, err := conv.Convert(good)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	before := append([]byte(nil), pixels...)

	bad := []*pixelpipe.RawFrame{
		{Width: 4, Height: 4, Samples: make([]uint16, 15)},  // short samples
		{Width: 8, Height: 4, Samples: make([]uint16, 32)},  // wrong geometry
		{Width: 4, Height: 4, Samples: make([]uint16, 17)},  // long samples
		nil, // no frame at all
	}
	for i, frame := range bad {
		if _, err := conv.Convert(frame); !errors.Is(err, pixelpipe.ErrDimensionMismatch) {
			t.Errorf("case %d: expected ErrDimensionMismatch, got %v", i, err)
		}
	}

	if !bytes.Equal(before, conv.CopyOut()) {
		t.Error("rejected frames modified the previous pixel buffer")
	}
}

// TestCopyOutOwnership verifies CopyOut hands over an independent buffer
// that later conversions do not overwrite.
func TestCopyOutOwnership(t *testing.T) {
	conv, err := pixelpipe.NewConverter(2, 2, pixelpipe.NewDepthMapper(0, 0))
	if err != nil {
		t.Fatalf("NewConverter failed: %v", err)
	}

	frameA := &pixelpipe.RawFrame{Width: 2, Height: 2, Samples: []uint16{31, 62, 93, 124}}
	if _, err := conv.Convert(frameA); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	copyA := conv.CopyOut()

	frameB := &pixelpipe.RawFrame{Width: 2, Height: 2, Samples: []uint16{155, 186, 217, 248}}
	view, err := conv.Convert(frameB)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	if bytes.Equal(copyA, view) {
		t.Error("CopyOut buffer was overwritten by a later conversion")
	}
	if copyA[0] != 1 {
		t.Errorf("Expected copied intensity 1, got %d", copyA[0])
	}
}
