// Package bitq provides the fixed-capacity bit FIFO used on both ends of
// a draad wire and in the hub's host link buffers.
//
// Bits are kept packed in a single 32-bit word. The head of the queue is
// the least significant bit, so the first bit pushed is the first bit
// popped and a word of n bits read back with PopN is LSB-first.
package bitq

import (
	"fmt"
	"sync"
)

// MaxCapacity is the largest capacity a Queue can have.
const MaxCapacity = 32

// Queue is a FIFO of bits with a sticky overflow flag.
// All operations are safe to use from interrupt context and main loop as
// long as both share the same lock.
type Queue struct {
	lock     sync.Locker
	bits     uint32
	size     int
	capacity int
	overflow bool
}

// New creates a Queue with the given capacity (1..MaxCapacity).
// If lock is nil, the Queue uses its own mutex.
func New(capacity int, lock sync.Locker) *Queue {
	if capacity <= 0 || capacity > MaxCapacity {
		panic(fmt.Sprintf("bitq: invalid capacity %d", capacity))
	}
	if lock == nil {
		lock = &sync.Mutex{}
	}
	return &Queue{lock: lock, capacity: capacity}
}

// Mask returns a word with the lower n bits set.
func Mask(n int) uint32 {
	if n <= 0 {
		return 0
	}
	if n >= 32 {
		return ^uint32(0)
	}
	return uint32(1)<<uint(n) - 1
}

// Push appends a bit at the tail.
// It returns false and raises the overflow flag if the queue is full.
func (q *Queue) Push(bit bool) bool {
	q.lock.Lock()
	defer q.lock.Unlock()
	if q.size >= q.capacity {
		q.overflow = true
		return false
	}
	if bit {
		q.bits |= 1 << uint(q.size)
	}
	q.size++
	return true
}

// PushN appends the lower n bits of bits, LSB first.
// Either all n bits are queued or none: if they don't fit the overflow flag
// is raised and the queue is left untouched.
func (q *Queue) PushN(bits uint32, n int) bool {
	if n <= 0 {
		return true
	}
	q.lock.Lock()
	defer q.lock.Unlock()
	if q.size+n > q.capacity {
		q.overflow = true
		return false
	}
	q.bits |= (bits & Mask(n)) << uint(q.size)
	q.size += n
	return true
}

// Pop removes the bit at the head.
func (q *Queue) Pop() (bit, ok bool) {
	q.lock.Lock()
	defer q.lock.Unlock()
	if q.size == 0 {
		return false, false
	}
	bit = q.bits&1 != 0
	q.bits >>= 1
	q.size--
	return bit, true
}

// PopN removes up to n bits from the head and returns them LSB first
// together with the number of bits actually removed.
func (q *Queue) PopN(n int) (bits uint32, count int) {
	q.lock.Lock()
	defer q.lock.Unlock()
	if n > q.size {
		n = q.size
	}
	if n <= 0 {
		return 0, 0
	}
	bits = q.bits & Mask(n)
	if n >= 32 {
		q.bits = 0
	} else {
		q.bits >>= uint(n)
	}
	q.size -= n
	return bits, n
}

// Snapshot returns the queued bits without consuming them.
func (q *Queue) Snapshot() (bits uint32, n int) {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.bits, q.size
}

// Len returns the number of queued bits.
func (q *Queue) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.size
}

// Cap returns the capacity.
func (q *Queue) Cap() int {
	return q.capacity
}

// Empty indicates no bits are queued.
func (q *Queue) Empty() bool {
	return q.Len() == 0
}

// Full indicates no more bits can be queued.
func (q *Queue) Full() bool {
	return q.Len() >= q.capacity
}

// Overflowed reports the sticky overflow flag.
func (q *Queue) Overflowed() bool {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.overflow
}

// ClearOverflow clears the overflow flag and returns its previous value.
func (q *Queue) ClearOverflow() bool {
	q.lock.Lock()
	defer q.lock.Unlock()
	prev := q.overflow
	q.overflow = false
	return prev
}

// Reset drops all queued bits. The overflow flag is kept.
func (q *Queue) Reset() {
	q.lock.Lock()
	q.bits, q.size = 0, 0
	q.lock.Unlock()
}

// String formats queued bits head first, e.g. "1101".
func (q *Queue) String() string {
	bits, n := q.Snapshot()
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = '0' + byte(bits>>uint(i)&1)
	}
	return string(buf)
}
