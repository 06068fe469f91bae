// Package netcast broadcasts occupancy masks derived from depth frames to
// peers on the local network.
//
// A mask holds one bit per pixel: set when the depth sample falls inside
// the configured threshold, clear otherwise. Masks are zstd-compressed and
// sent as single UDP multicast datagrams, one per frame. Delivery is
// best-effort on purpose: a lost mask is obsolete by the time it could be
// retransmitted, so there is no acknowledgement and no retry.
package netcast
