// Package pixelfeed distributes converted pixel frames to render-side views
// with just-in-time, latest-wins semantics.
//
// Philosophy: "Drop frames, never queue. A stale preview is worse than a
// skipped one."
//
// One producer (the stream's frame-conversion callback) publishes finished
// RGBA buffers; any number of views (on-screen renderer, UDP caster, HTTP
// preview) subscribe. Each view owns a single-slot mailbox: a new frame
// overwrites an unconsumed one, so a slow view always wakes to the newest
// frame and can never build a backlog that pressures the sensor callback.
//
//   - Publish is non-blocking (~1us), safe to call from the frame callback
//   - Subscribe returns a blocking read function with efficient waiting
//   - Drop counters per view surface slow consumers without affecting them
package pixelfeed
