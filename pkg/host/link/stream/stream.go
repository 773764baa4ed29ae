// Package stream frames link packets on byte streams like TCP: every
// packet is prefixed by its length as a 16-bit little-endian integer.
package stream

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/draad/pkg/framework"
)

// HeaderSize is the size of the length prefix.
const HeaderSize = 2

// ErrPacketTooLarge is returned writing a packet whose length doesn't fit
// the prefix.
var ErrPacketTooLarge = errors.New("packet too large")

// Conn implements link.PacketConn on a stream.
type Conn struct {
	io.ReadWriteCloser

	hdr [HeaderSize]byte
}

// New wraps a stream.
func New(s io.ReadWriteCloser) *Conn {
	return &Conn{ReadWriteCloser: s}
}

// Dial connects to a TCP address.
func Dial(addr string) (*Conn, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// ReadPacket implements link.PacketReader.
func (c *Conn) ReadPacket() ([]byte, error) {
	if _, err := io.ReadFull(c, c.hdr[:]); err != nil {
		return nil, err
	}
	pkt := make([]byte, binary.LittleEndian.Uint16(c.hdr[:]))
	if _, err := io.ReadFull(c, pkt); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return pkt, nil
}

// WritePacket implements link.PacketWriter.
func (c *Conn) WritePacket(pkt []byte) error {
	if len(pkt) > 0xffff {
		return ErrPacketTooLarge
	}
	buf := make([]byte, HeaderSize+len(pkt))
	binary.LittleEndian.PutUint16(buf, uint16(len(pkt)))
	copy(buf[HeaderSize:], pkt)
	_, err := c.Write(buf)
	return err
}

// Listen accepts connections on ln and serves each with serve until ctx
// is done. ln is closed on return.
func Listen(ctx context.Context, ln net.Listener, serve func(context.Context, *Conn)) error {
	var wg sync.WaitGroup
	defer wg.Wait()
	return fx.RunWithContextCloser(ctx, ln, func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return err
			}
			glog.V(1).Infof("link from %s", conn.RemoteAddr())
			wg.Add(1)
			go func() {
				defer wg.Done()
				serve(ctx, New(conn))
			}()
		}
	})
}
