package hub

import (
	"fmt"

	"github.com/robotalks/draad/pkg/irq"
)

// Host link bindings.
const (
	BindingBit  = "bit"
	BindingByte = "byte"
)

// NewLink creates the Link for a binding name.
func NewLink(binding string, mask *irq.Mask) (Link, error) {
	switch binding {
	case BindingBit:
		return NewBitLink(mask), nil
	case BindingByte:
		return NewByteLink(mask), nil
	}
	return nil, fmt.Errorf("unknown host link binding %q", binding)
}
