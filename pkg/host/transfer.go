package host

import "io"

// Transferer performs full-duplex transfers with the hub: tx is shifted
// out while the same number of bytes is shifted in.
type Transferer interface {
	Transfer(tx []byte) ([]byte, error)
	io.Closer
}

// Exchanger is an in-process hub link.
type Exchanger interface {
	Exchange(tx []byte) []byte
}

// LocalTransferer transfers directly into an in-process hub link.
type LocalTransferer struct {
	Exchanger
}

// Transfer implements Transferer.
func (t LocalTransferer) Transfer(tx []byte) ([]byte, error) {
	return t.Exchange(tx), nil
}

// Close implements Transferer.
func (t LocalTransferer) Close() error {
	return nil
}
