// Package pixelpipe implements the sensor frame-to-pixel conversion pipeline.
//
// Philosophy: "One frame in, one RGBA buffer out. Bounded time, zero alloc."
//
// The pipeline converts raw 16-bit sensor samples (infrared photon counts or
// depth in millimeters) into displayable grayscale RGBA buffers:
//   - Pure per-sample intensity mappers (infrared and depth calibrations)
//   - A Converter that drives a mapper over a whole frame into a private,
//     reusable pixel buffer
//   - Fail-fast geometry validation (a mismatched frame is dropped whole,
//     never partially rendered)
//
// The conversion path is the hot path of the sensor loop: it runs inside the
// frame-arrived callback and must complete well inside one frame period
// (~33ms at 30fps for a 512x424 frame). The Converter allocates its pixel
// buffer once and only overwrites it, so steady-state conversion performs no
// allocation.
package pixelpipe
