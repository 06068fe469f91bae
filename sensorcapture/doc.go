// Package sensorcapture acquires raw sensor frames behind a uniform
// provider contract.
//
// Two providers are included:
//
//   - ReplayStream: replays recorded sensor captures (or a synthetic test
//     source) through a GStreamer pipeline that normalizes the video to
//     16-bit grayscale at the sensor geometry, so downstream code sees the
//     exact sample format the hardware delivers. Supports target-FPS
//     hot-reload and loops on end-of-stream.
//
//   - Simulator: a pure-Go synthetic source (no GStreamer, no hardware) that
//     generates deterministic sample patterns and scripted body-tracking
//     frames. Used by tests and by deployments without a sensor attached.
//
// Both providers share the same delivery contract:
// non-blocking channel delivery with drop-on-full, atomic statistics,
// warmup-phase FPS stability measurement, and idempotent Stop.
//
// Frame data is copied out of the acquisition callback before the backing
// buffer is released; a Frame's samples are owned by the frame and are
// read-only for every consumer.
package sensorcapture
