// Package link carries hub transfers over packet connections, so a host
// can talk to a hub running in another process or on another machine.
// Every transfer is one request packet (tx) answered by one packet (rx)
// of the same size.
package link

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/draad/pkg/framework"
	"github.com/robotalks/draad/pkg/host"
)

// MaxPacketSize limits the size of a transfer.
const MaxPacketSize = 1024

// PacketReader reads packets in bytes.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes packets in bytes.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter reads/writes packets in bytes.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}

// PacketConn is a PacketReadWriter owning a connection.
type PacketConn interface {
	PacketReadWriter
	io.Closer
}

// Transferer implements host.Transferer over a PacketConn.
type Transferer struct {
	Conn PacketConn

	lock sync.Mutex
}

// NewTransferer creates a Transferer.
func NewTransferer(conn PacketConn) *Transferer {
	return &Transferer{Conn: conn}
}

// Transfer implements host.Transferer.
func (t *Transferer) Transfer(tx []byte) ([]byte, error) {
	if len(tx) > MaxPacketSize {
		return nil, fmt.Errorf("transfer of %d bytes exceeds %d", len(tx), MaxPacketSize)
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	if err := t.Conn.WritePacket(tx); err != nil {
		return nil, err
	}
	rx, err := t.Conn.ReadPacket()
	if err != nil {
		return nil, err
	}
	if len(rx) != len(tx) {
		return nil, fmt.Errorf("transfer of %d bytes answered with %d", len(tx), len(rx))
	}
	return rx, nil
}

// Close implements host.Transferer.
func (t *Transferer) Close() error {
	return t.Conn.Close()
}

// Serve answers transfers on conn with ex until ctx is done or the
// connection fails. conn is closed on return.
func Serve(ctx context.Context, conn PacketConn, ex host.Exchanger) error {
	err := fx.RunWithContextCloser(ctx, conn, func() error {
		for {
			tx, err := conn.ReadPacket()
			if err != nil {
				return err
			}
			if len(tx) > MaxPacketSize {
				return fmt.Errorf("transfer of %d bytes exceeds %d", len(tx), MaxPacketSize)
			}
			if err := conn.WritePacket(ex.Exchange(tx)); err != nil {
				return err
			}
		}
	})
	if err == io.EOF {
		glog.V(1).Info("link closed by peer")
		return nil
	}
	return err
}
