package link_test

import (
	"context"
	"net"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/draad/pkg/host/link"
	"github.com/robotalks/draad/pkg/host/link/stream"
	"github.com/robotalks/draad/pkg/host/link/websocket"
)

type inverter struct{}

func (inverter) Exchange(tx []byte) []byte {
	rx := make([]byte, len(tx))
	for i, b := range tx {
		rx[i] = ^b
	}
	return rx
}

func TestStreamTransfer(t *testing.T) {
	client, server := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- link.Serve(ctx, stream.New(server), inverter{})
	}()

	tr := link.NewTransferer(stream.New(client))
	for _, tx := range [][]byte{{0x00, 0x0f, 0xff}, {}, {0x81, 0, 0, 0, 0}} {
		rx, err := tr.Transfer(tx)
		require.NoError(t, err)
		require.Equal(t, inverter{}.Exchange(tx), rx)
	}
	cancel()
	require.Equal(t, context.Canceled, <-done)
	tr.Close()
}

func TestStreamPeerClose(t *testing.T) {
	client, server := net.Pipe()
	done := make(chan error, 1)
	go func() {
		done <- link.Serve(context.Background(), stream.New(server), inverter{})
	}()
	client.Close()
	require.NoError(t, <-done)
}

func TestTransferTooLarge(t *testing.T) {
	client, _ := net.Pipe()
	tr := link.NewTransferer(stream.New(client))
	defer tr.Close()
	_, err := tr.Transfer(make([]byte, link.MaxPacketSize+1))
	require.Error(t, err)
}

func TestStreamListen(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- stream.Listen(ctx, ln, func(ctx context.Context, conn *stream.Conn) {
			link.Serve(ctx, conn, inverter{})
		})
	}()

	conn, err := stream.Dial(ln.Addr().String())
	require.NoError(t, err)
	tr := link.NewTransferer(conn)
	rx, err := tr.Transfer([]byte{0x55})
	require.NoError(t, err)
	require.Equal(t, []byte{0xaa}, rx)
	require.NoError(t, tr.Close())

	cancel()
	require.Equal(t, context.Canceled, <-done)
}

func TestWebsocketTransfer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := httptest.NewServer(websocket.Handler(ctx, inverter{}))
	defer srv.Close()

	conn, err := websocket.Dial("ws" + strings.TrimPrefix(srv.URL, "http"))
	require.NoError(t, err)
	tr := link.NewTransferer(conn)
	defer tr.Close()
	for _, tx := range [][]byte{{0x01}, {0x80, 0x7f, 0x00, 0x00, 0x00}} {
		rx, err := tr.Transfer(tx)
		require.NoError(t, err)
		require.Equal(t, inverter{}.Exchange(tx), rx)
	}
}
