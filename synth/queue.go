package synth

import (
	"runtime"
	"sync/atomic"
)

type regWrite struct {
	addr uint16
	val  uint8
}

// RegQueue is a lock-free spsc queue carrying register writes from
// the control goroutine to the audio callback. The engine is the only
// producer, the bridge the only consumer.
type RegQueue struct {
	writes      []regWrite
	read, write *uint32
}

// queueSize fits several full reprograms of all nine channels; a
// complete NoteOn touches at most 13 registers per channel.
const queueSize = 1024

func NewRegQueue() *RegQueue {
	return newRegQueue(queueSize)
}

func newRegQueue(size int) *RegQueue {
	if size <= 0 || size&(size-1) != 0 {
		panic("register queue size must be a power of 2")
	}
	return &RegQueue{
		writes: make([]regWrite, size),
		read:   new(uint32),
		write:  new(uint32),
	}
}

// WriteReg enqueues one write, spinning if the queue is full. Only
// the producer side ever waits; Drain is wait-free.
func (q *RegQueue) WriteReg(addr uint16, val uint8) {
	for atomic.LoadUint32(q.write)-atomic.LoadUint32(q.read) == uint32(len(q.writes)) {
		runtime.Gosched()
	}
	write := atomic.LoadUint32(q.write)
	q.writes[write%uint32(len(q.writes))] = regWrite{addr, val}
	atomic.StoreUint32(q.write, write+1)
}

// Drain delivers all currently queued writes to the chip. Writes
// enqueued after Drain loads the cursors are picked up next time.
func (q *RegQueue) Drain(chip Chip) {
	read := atomic.LoadUint32(q.read)
	write := atomic.LoadUint32(q.write)
	if read == write {
		return
	}
	for read != write {
		w := q.writes[read%uint32(len(q.writes))]
		chip.WriteReg(w.addr, w.val)
		read++
	}
	atomic.StoreUint32(q.read, read)
}
