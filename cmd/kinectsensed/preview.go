package main

import (
	"sync"

	"github.com/e7canasta/kinect-sense/pixelfeed"
)

// previewStore keeps the newest converted frame for the HTTP preview
// endpoint. Published pixel buffers are immutable, so holding the
// reference is enough.
type previewStore struct {
	mu     sync.RWMutex
	pix    []byte
	width  int
	height int
	ok     bool
}

// follow consumes a feed view until shutdown.
func (p *previewStore) follow(read func() *pixelfeed.Frame) {
	for {
		frame := read()
		if frame == nil {
			return
		}
		p.mu.Lock()
		p.pix = frame.Pixels
		p.width = frame.Width
		p.height = frame.Height
		p.ok = true
		p.mu.Unlock()
	}
}

func (p *previewStore) LatestPixels() ([]byte, int, int, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pix, p.width, p.height, p.ok
}
