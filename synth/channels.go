package synth

import "log"

// numChannels is how many melodic channels the chip exposes.
const numChannels = 9

// NoteID identifies a sounding note by its source track and MIDI
// note number. The same note on two tracks is two independent notes.
type NoteID struct {
	Track int
	Note  int
}

// Allocation records the channels a note currently holds. DualVoice
// marks notes granted under a dual-voice request, even when degraded
// to a single channel.
type Allocation struct {
	ID        NoteID
	Channels  []int
	DualVoice bool

	stamp uint64
}

// ChannelManager schedules the chip's channels. The slot arena is the
// single source of truth for occupancy; the map indexes it by note.
// All methods run on the control goroutine, so there is no locking.
type ChannelManager struct {
	slots  [numChannels]*Allocation // nil means free
	allocs map[NoteID]*Allocation
	clock  uint64

	// onEvict is told which channels a steal is about to free, so the
	// engine can key them off before they are reprogrammed.
	onEvict func(channels []int)
}

func NewChannelManager(onEvict func(channels []int)) *ChannelManager {
	return &ChannelManager{
		allocs:  make(map[NoteID]*Allocation),
		onEvict: onEvict,
	}
}

// AllocateChannel grants one channel. A note already holding a
// single-channel allocation gets the same channel back. When every
// channel is taken, the allocation with the oldest timestamp is
// evicted and the scan runs once more.
func (m *ChannelManager) AllocateChannel(id NoteID) (int, bool) {
	if a, ok := m.allocs[id]; ok {
		if len(a.Channels) == 1 {
			return a.Channels[0], true
		}
		// the note is switching voice shape; start over
		m.release(a)
	}
	if ch, ok := m.freeChannel(); ok {
		m.take(id, []int{ch}, false)
		return ch, true
	}
	victim := m.oldest(nil)
	if victim == nil {
		log.Printf("synth: no channel for %v: nothing to steal", id)
		return 0, false
	}
	m.evict(victim)
	if ch, ok := m.freeChannel(); ok {
		m.take(id, []int{ch}, false)
		return ch, true
	}
	log.Printf("synth: no channel for %v after stealing", id)
	return 0, false
}

// AllocateDualChannels grants two channels, consecutive when
// possible. Stealing spares other dual-voice notes: single-voice
// allocations go first, oldest first. If that leaves exactly one
// channel, the request degrades to a single-channel grant and the
// caller plays only the primary voice.
func (m *ChannelManager) AllocateDualChannels(id NoteID) ([]int, bool) {
	if a, ok := m.allocs[id]; ok {
		if a.DualVoice {
			return a.Channels, true
		}
		m.release(a)
	}
	for m.freeCount() < 2 {
		victim := m.oldest(func(a *Allocation) bool { return !a.DualVoice })
		if victim == nil {
			break
		}
		m.evict(victim)
	}
	if chs, ok := m.freePair(); ok {
		m.take(id, chs, true)
		return chs, true
	}
	if ch, ok := m.freeChannel(); ok {
		log.Printf("synth: degrading dual-voice note %v to single channel %d", id, ch)
		m.take(id, []int{ch}, true)
		return []int{ch}, true
	}
	// every channel belongs to a dual-voice note; evict the oldest of
	// those until a pair opens up
	for m.freeCount() < 2 {
		victim := m.oldest(nil)
		if victim == nil {
			log.Printf("synth: no channels for dual-voice note %v", id)
			return nil, false
		}
		m.evict(victim)
	}
	chs, _ := m.freePair()
	m.take(id, chs, true)
	return chs, true
}

// ReleaseNote frees all channels held by id. Unknown ids are a no-op:
// the note may have ended already or been stolen.
func (m *ChannelManager) ReleaseNote(id NoteID) {
	if a, ok := m.allocs[id]; ok {
		m.release(a)
	}
}

// Allocation returns a copy of the live allocation for id, if any.
func (m *ChannelManager) Allocation(id NoteID) (Allocation, bool) {
	a, ok := m.allocs[id]
	if !ok {
		return Allocation{}, false
	}
	return *a, true
}

// Stats reports channel occupancy.
type Stats struct {
	Free           int
	Allocated      int
	DualVoiceNotes int
}

func (m *ChannelManager) Stats() Stats {
	var s Stats
	for _, a := range m.slots {
		if a == nil {
			s.Free++
		} else {
			s.Allocated++
		}
	}
	for _, a := range m.allocs {
		if a.DualVoice {
			s.DualVoiceNotes++
		}
	}
	return s
}

// ChannelStatus describes one channel for display.
type ChannelStatus struct {
	Channel   int
	Free      bool
	ID        NoteID
	DualVoice bool
	Age       uint64 // allocations granted since this one
}

// Snapshot lists all channels in index order.
func (m *ChannelManager) Snapshot() []ChannelStatus {
	out := make([]ChannelStatus, numChannels)
	for ch, a := range m.slots {
		st := ChannelStatus{Channel: ch, Free: a == nil}
		if a != nil {
			st.ID = a.ID
			st.DualVoice = a.DualVoice
			st.Age = m.clock - a.stamp
		}
		out[ch] = st
	}
	return out
}

// Reset drops every allocation. The clock keeps running so timestamps
// stay monotonic across resets.
func (m *ChannelManager) Reset() {
	for ch := range m.slots {
		m.slots[ch] = nil
	}
	m.allocs = make(map[NoteID]*Allocation)
}

func (m *ChannelManager) freeChannel() (int, bool) {
	for ch, a := range m.slots {
		if a == nil {
			return ch, true
		}
	}
	return 0, false
}

// freePair returns two free channels, adjacent if any adjacent pair
// is free, otherwise the two lowest.
func (m *ChannelManager) freePair() ([]int, bool) {
	for ch := 0; ch < numChannels-1; ch++ {
		if m.slots[ch] == nil && m.slots[ch+1] == nil {
			return []int{ch, ch + 1}, true
		}
	}
	var free []int
	for ch, a := range m.slots {
		if a == nil {
			free = append(free, ch)
			if len(free) == 2 {
				return free, true
			}
		}
	}
	return nil, false
}

func (m *ChannelManager) freeCount() int {
	var n int
	for _, a := range m.slots {
		if a == nil {
			n++
		}
	}
	return n
}

// oldest returns the allocation with the smallest timestamp, ties
// broken by lowest channel index. filter narrows the candidates; nil
// considers everything.
func (m *ChannelManager) oldest(filter func(*Allocation) bool) *Allocation {
	var victim *Allocation
	for _, a := range m.allocs {
		if filter != nil && !filter(a) {
			continue
		}
		if victim == nil || a.stamp < victim.stamp ||
			a.stamp == victim.stamp && a.Channels[0] < victim.Channels[0] {
			victim = a
		}
	}
	return victim
}

func (m *ChannelManager) evict(a *Allocation) {
	if m.onEvict != nil {
		m.onEvict(a.Channels)
	}
	m.release(a)
}

func (m *ChannelManager) release(a *Allocation) {
	for _, ch := range a.Channels {
		m.slots[ch] = nil
	}
	delete(m.allocs, a.ID)
}

func (m *ChannelManager) take(id NoteID, channels []int, dual bool) {
	m.clock++
	a := &Allocation{ID: id, Channels: channels, DualVoice: dual, stamp: m.clock}
	for _, ch := range channels {
		m.slots[ch] = a
	}
	m.allocs[id] = a
}
