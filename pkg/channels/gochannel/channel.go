// Package gochannel provides the in-process event transport used by single-process servers and tests.
package gochannel

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	serveBuffer  = 1000
	replayBuffer = 16
)

// NewPubSub returns one GoChannel acting as both publisher and subscriber.
// With replay set, published messages are kept and delivered to subscribers that start
// later, which lets tests publish before subscribing.
func NewPubSub(logger watermill.LoggerAdapter, replay bool) *gochannel.GoChannel {
	buffer := int64(serveBuffer)
	if replay {
		buffer = replayBuffer
	}

	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: buffer,
		Persistent:          replay,
	}, logger)
}
