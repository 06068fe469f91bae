package netcast

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"net"
	"net/netip"
	"sync"
	"time"
)

// maxDatagram bounds the receive buffer. A full-sensor uncompressed mask
// is 512*424/8 bytes plus header; compressed masks are smaller.
const maxDatagram = 512*424/8 + headerSize

// Receiver listens on a multicast group and keeps the latest mask.
// Older masks are overwritten, never queued.
type Receiver struct {
	conn  *net.UDPConn
	codec *Codec

	latestMu sync.RWMutex
	latest   Mask
	hasMask  bool
}

// NewReceiver joins the multicast group.
func NewReceiver(group netip.AddrPort) (*Receiver, error) {
	conn, err := net.ListenMulticastUDP("udp4", nil, net.UDPAddrFromAddrPort(group))
	if err != nil {
		return nil, fmt.Errorf("netcast: failed to join multicast group: %w", err)
	}

	codec, err := NewCodec()
	if err != nil {
		conn.Close()
		return nil, err
	}

	slog.Info("netcast: receiver joined", "group", group.String())

	return &Receiver{conn: conn, codec: codec}, nil
}

// Run reads datagrams until the context is cancelled or the connection is
// closed. Malformed datagrams are logged and skipped; multicast groups are
// shared and a misbehaving peer must not take the receiver down.
func (r *Receiver) Run(ctx context.Context) error {
	buf := make([]byte, maxDatagram)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Short read deadline keeps the loop responsive to cancellation.
		r.conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))

		n, err := r.conn.Read(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("netcast: receive failed: %w", err)
		}

		mask, err := r.codec.Decode(buf[:n])
		if err != nil {
			slog.Warn("netcast: dropping malformed datagram", "error", err, "bytes", n)
			continue
		}

		r.latestMu.Lock()
		r.latest = mask
		r.hasMask = true
		r.latestMu.Unlock()
	}
}

// Latest returns the most recent mask. The second return is false until
// the first mask arrives.
func (r *Receiver) Latest() (Mask, bool) {
	r.latestMu.RLock()
	defer r.latestMu.RUnlock()
	return r.latest, r.hasMask
}

// RenderRGBA rasterizes the latest mask: present pixels take the given
// color, absent pixels are opaque black. Returns nil before the first
// mask arrives.
func (r *Receiver) RenderRGBA(col color.RGBA) *image.RGBA {
	mask, ok := r.Latest()
	if !ok {
		return nil
	}

	img := image.NewRGBA(image.Rect(0, 0, mask.Width, mask.Height))
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			offset := img.PixOffset(x, y)
			if mask.At(x, y) {
				img.Pix[offset+0] = col.R
				img.Pix[offset+1] = col.G
				img.Pix[offset+2] = col.B
			}
			img.Pix[offset+3] = 255
		}
	}
	return img
}

// Close leaves the multicast group, unblocking Run.
func (r *Receiver) Close() error {
	r.codec.Close()
	return r.conn.Close()
}
