// Package websocket carries link packets as binary websocket messages.
package websocket

import (
	"context"
	"net/http"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/draad/pkg/host"
	"github.com/robotalks/draad/pkg/host/link"
)

// Conn implements link.PacketConn.
type Conn websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *Conn {
	return (*Conn)(conn)
}

// Dial connects to a websocket URL, e.g. ws://localhost:7280/link.
func Dial(url string) (*Conn, error) {
	conn, err := websocket.Dial(url, "", "http://localhost/")
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// ReadPacket implements link.PacketReader.
func (c *Conn) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive((*websocket.Conn)(c), &pkt)
	return
}

// WritePacket implements link.PacketWriter.
func (c *Conn) WritePacket(pkt []byte) error {
	return websocket.Message.Send((*websocket.Conn)(c), pkt)
}

// Close implements io.Closer.
func (c *Conn) Close() error {
	return (*websocket.Conn)(c).Close()
}

// Handler serves links on websocket connections until ctx is done.
func Handler(ctx context.Context, ex host.Exchanger) http.Handler {
	return websocket.Handler(func(conn *websocket.Conn) {
		glog.V(1).Infof("link from %s", conn.Request().RemoteAddr)
		if err := link.Serve(ctx, New(conn), ex); err != nil && err != context.Canceled {
			glog.Warningf("link from %s: %v", conn.Request().RemoteAddr, err)
		}
	})
}
