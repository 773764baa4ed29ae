package frame

import (
	"bufio"
	"io"
)

// AppendFrame appends the header byte and the body bytes of f.
func AppendFrame(dst []byte, l Layout, f Frame) []byte {
	dst = append(dst, l.Encode(f.Header()))
	for i := 0; i < BodyBytes(f.Length); i++ {
		dst = append(dst, byte(f.Bits>>uint(8*i)))
	}
	return dst
}

// EncodedLen returns the number of bytes AppendFrame produces.
func EncodedLen(f Frame) int {
	return 1 + BodyBytes(f.Length)
}

// EncodeBits packs header (LayoutLSB) and body into one word in the order
// the bits are clocked out, LSB first. Length must not exceed MaxHubPayload.
func EncodeBits(f Frame) (bits uint32, n int) {
	if f.Length > MaxHubPayload {
		f.Length = MaxHubPayload
	}
	bits = uint32(LayoutLSB.Encode(f.Header())) | (f.Bits&(1<<MaxHubPayload-1))<<HeaderBits
	return bits, HeaderBits + f.Length
}

// StreamDecoder decodes frames from bytes received by the host.
// It keeps partial frames between calls to Feed.
type StreamDecoder interface {
	// Feed decodes bytes and returns completed frames.
	Feed(p []byte) []Frame
	// Dropped returns the number of frames discarded as invalid.
	Dropped() int
}

// NewStreamDecoder creates a decoder for a hub using the layout.
func NewStreamDecoder(l Layout) StreamDecoder {
	if l == LayoutLSB {
		return &bitStreamDecoder{}
	}
	return &byteStreamDecoder{asm: ByteAssembler{Layout: l}}
}

type bitStreamDecoder struct {
	asm     BitAssembler
	dropped int
}

// Feed implements StreamDecoder. Each byte is consumed LSB first.
func (d *bitStreamDecoder) Feed(p []byte) (frames []Frame) {
	for _, b := range p {
		for i := uint(0); i < 8; i++ {
			switch f, r := d.asm.PushBit(b>>i&1 != 0); r {
			case ResultFrame:
				frames = append(frames, f)
			case ResultInvalid:
				d.dropped++
			}
		}
	}
	return
}

func (d *bitStreamDecoder) Dropped() int {
	return d.dropped
}

type byteStreamDecoder struct {
	asm     ByteAssembler
	dropped int
}

// Feed implements StreamDecoder.
func (d *byteStreamDecoder) Feed(p []byte) (frames []Frame) {
	for _, b := range p {
		switch f, r := d.asm.PushByte(b); r {
		case ResultFrame:
			frames = append(frames, f)
		case ResultInvalid:
			d.dropped++
		}
	}
	return
}

func (d *byteStreamDecoder) Dropped() int {
	return d.dropped
}

// ScanFrames returns a bufio.SplitFunc splitting a byte-aligned stream into
// encoded frames. Zero bytes between frames are skipped. Bytes which are
// neither zero nor a header are skipped one at a time.
func ScanFrames(l Layout) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (advance int, token []byte, err error) {
		for advance < len(data) && !l.IsStart(data[advance]) {
			advance++
		}
		if advance > 0 || len(data) == 0 {
			return advance, nil, nil
		}
		h, _ := l.Decode(data[0])
		size := 1 + BodyBytes(h.Length)
		if size > len(data) {
			if atEOF {
				return len(data), nil, io.ErrUnexpectedEOF
			}
			return 0, nil, nil
		}
		return size, data[:size], nil
	}
}

// Reader reads frames from a byte-aligned stream.
type Reader struct {
	Layout  Layout
	scanner *bufio.Scanner
}

// NewReader creates a Reader.
func NewReader(r io.Reader, l Layout) *Reader {
	s := bufio.NewScanner(r)
	s.Split(ScanFrames(l))
	return &Reader{Layout: l, scanner: s}
}

// Next returns the next valid frame. Frames with an invalid channel are
// skipped. It returns io.EOF at the end of the stream.
func (r *Reader) Next() (Frame, error) {
	for r.scanner.Scan() {
		asm := ByteAssembler{Layout: r.Layout}
		var (
			f   Frame
			res Result
		)
		for _, b := range r.scanner.Bytes() {
			f, res = asm.PushByte(b)
		}
		if res == ResultFrame {
			return f, nil
		}
	}
	if err := r.scanner.Err(); err != nil {
		return Frame{}, err
	}
	return Frame{}, io.EOF
}
