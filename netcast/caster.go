package netcast

import (
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"sync"
	"sync/atomic"
)

// DefaultDepthThreshold is the presence cutoff in millimeters when no
// threshold is configured.
const DefaultDepthThreshold uint16 = 2000

// CasterStats is a snapshot of broadcast counters.
type CasterStats struct {
	MasksSent uint64
	BytesSent uint64
}

// Caster broadcasts presence masks over UDP multicast.
type Caster struct {
	conn  *net.UDPConn
	codec *Codec

	thresholdMu sync.RWMutex
	threshold   uint16

	masksSent uint64 // atomic
	bytesSent uint64 // atomic
}

// NewCaster dials the multicast group and prepares the codec.
func NewCaster(group netip.AddrPort) (*Caster, error) {
	conn, err := net.DialUDP("udp4", nil, net.UDPAddrFromAddrPort(group))
	if err != nil {
		return nil, fmt.Errorf("netcast: failed to dial multicast group: %w", err)
	}

	codec, err := NewCodec()
	if err != nil {
		conn.Close()
		return nil, err
	}

	slog.Info("netcast: caster ready", "group", group.String())

	return &Caster{
		conn:      conn,
		codec:     codec,
		threshold: DefaultDepthThreshold,
	}, nil
}

// SetDepthThreshold updates the presence cutoff. Takes effect on the next
// cast.
func (c *Caster) SetDepthThreshold(threshold uint16) {
	c.thresholdMu.Lock()
	c.threshold = threshold
	c.thresholdMu.Unlock()
}

// DepthThreshold returns the current presence cutoff.
func (c *Caster) DepthThreshold() uint16 {
	c.thresholdMu.RLock()
	defer c.thresholdMu.RUnlock()
	return c.threshold
}

// Cast packs one depth sample plane into a mask and sends it. A send
// failure is returned but the caster stays usable; the next frame simply
// tries again.
func (c *Caster) Cast(samples []uint16, width, height int, seq uint64) error {
	if len(samples) != width*height {
		return fmt.Errorf("netcast: sample plane is %d values, geometry %dx%d needs %d",
			len(samples), width, height, width*height)
	}

	mask := BuildMask(samples, width, height, c.DepthThreshold())
	mask.Seq = seq
	packet := c.codec.Encode(mask)

	n, err := c.conn.Write(packet)
	if err != nil {
		return fmt.Errorf("netcast: failed to send mask: %w", err)
	}

	atomic.AddUint64(&c.masksSent, 1)
	atomic.AddUint64(&c.bytesSent, uint64(n))
	return nil
}

// Stats returns current broadcast counters (thread-safe).
func (c *Caster) Stats() CasterStats {
	return CasterStats{
		MasksSent: atomic.LoadUint64(&c.masksSent),
		BytesSent: atomic.LoadUint64(&c.bytesSent),
	}
}

// Close releases the socket and the codec.
func (c *Caster) Close() error {
	c.codec.Close()
	return c.conn.Close()
}
