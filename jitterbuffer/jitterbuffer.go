// Package jitterbuffer implements a latency-bounded RTP reordering buffer:
// packets arrive in any order and are released in strictly increasing
// sequence order, each delayed by at most a configured latency beyond the
// arrival of the earliest still-unreleased packet.
//
// Grounded on the circular, serial-arithmetic reordering logic of a
// depacketizing sample builder, generalized here from frame reassembly to
// plain sequence-ordered release.
package jitterbuffer

import (
	"sort"
	"time"

	"github.com/pion/rtp"
)

// DefaultLatency is the release latency used when New is called with 0.
const DefaultLatency = 100 * time.Millisecond

type state int

const (
	stateInitial state = iota
	stateBuffering
)

type pending struct {
	packet  *rtp.Packet
	arrival time.Time
}

// JitterBuffer accepts arriving RTP packets in any order and releases them
// in strictly increasing 16-bit sequence order, respecting a latency bound.
// Not safe for concurrent use; callers serialize access externally.
type JitterBuffer struct {
	latency      time.Duration
	state        state
	store        map[uint16]pending
	nextExpected uint16
}

// New creates a JitterBuffer with the given release latency. A latency <= 0
// uses DefaultLatency.
func New(latency time.Duration) *JitterBuffer {
	if latency <= 0 {
		latency = DefaultLatency
	}
	return &JitterBuffer{
		latency: latency,
		state:   stateInitial,
		store:   make(map[uint16]pending),
	}
}

// seqDiff returns the signed serial-arithmetic distance a-b for 16-bit
// sequence numbers (RFC 1982): positive when a is "after" b.
func seqDiff(a, b uint16) int32 {
	return int32(int16(a - b))
}

// Insert adds packet to the buffer and returns any packets that become
// releasable as a result, plus the number of milliseconds until the next
// release deadline (nil if nothing is pending). Packets with an empty
// payload are padding and are dropped before insertion; duplicates and late
// arrivals (sequence number before nextExpected) are dropped silently.
func (b *JitterBuffer) Insert(packet *rtp.Packet) (released []*rtp.Packet, nextTimerMs *int64) {
	return b.insert(packet, time.Now())
}

func (b *JitterBuffer) insert(packet *rtp.Packet, now time.Time) ([]*rtp.Packet, *int64) {
	if packet == nil || len(packet.Payload) == 0 {
		return nil, b.nextTimer(now)
	}

	seq := packet.SequenceNumber

	if b.state == stateInitial {
		b.state = stateBuffering
		b.nextExpected = seq
	} else if seqDiff(seq, b.nextExpected) < 0 {
		return nil, b.nextTimer(now) // late arrival
	}

	if _, exists := b.store[seq]; exists {
		return nil, b.nextTimer(now) // duplicate
	}

	b.store[seq] = pending{packet: packet, arrival: now}

	released := b.releaseAvailable(now)
	return released, b.nextTimer(now)
}

// HandleTimeout is called when a previously-scheduled release deadline
// elapses: it unconditionally releases the earliest pending packet (even if
// it leaves a gap in the sequence), then releases any contiguous successors
// already buffered.
func (b *JitterBuffer) HandleTimeout() ([]*rtp.Packet, *int64) {
	return b.handleTimeout(time.Now())
}

func (b *JitterBuffer) handleTimeout(now time.Time) ([]*rtp.Packet, *int64) {
	earliestSeq, ok := b.earliestPendingSeq()
	if !ok {
		return nil, nil
	}

	released := []*rtp.Packet{b.store[earliestSeq].packet}
	delete(b.store, earliestSeq)
	b.nextExpected = earliestSeq + 1

	released = append(released, b.releaseAvailable(now)...)
	return released, b.nextTimer(now)
}

// Flush drains every pending packet in sequence order and returns the
// buffer to its initial state.
func (b *JitterBuffer) Flush() []*rtp.Packet {
	pendingList := b.sortedPending()
	released := make([]*rtp.Packet, 0, len(pendingList))
	for _, p := range pendingList {
		released = append(released, p.packet)
	}
	b.store = make(map[uint16]pending)
	b.state = stateInitial
	return released
}

// releaseAvailable releases the contiguous run starting at nextExpected,
// then, if the earliest remaining packet's deadline has elapsed, force-
// releases it and repeats — matching insert's "contiguous run or elapsed
// deadline" release rule.
func (b *JitterBuffer) releaseAvailable(now time.Time) []*rtp.Packet {
	var released []*rtp.Packet
	for {
		if p, ok := b.store[b.nextExpected]; ok {
			released = append(released, p.packet)
			delete(b.store, b.nextExpected)
			b.nextExpected++
			continue
		}

		seq, ok := b.earliestPendingSeq()
		if !ok {
			break
		}
		p := b.store[seq]
		if now.Sub(p.arrival) < b.latency {
			break
		}
		released = append(released, p.packet)
		delete(b.store, seq)
		b.nextExpected = seq + 1
	}
	return released
}

// earliestPendingSeq returns the sequence number of the pending packet
// closest to nextExpected in serial order.
func (b *JitterBuffer) earliestPendingSeq() (uint16, bool) {
	best, ok := uint16(0), false
	bestDiff := int32(1 << 30)
	for seq := range b.store {
		d := seqDiff(seq, b.nextExpected)
		if !ok || d < bestDiff {
			best, bestDiff, ok = seq, d, true
		}
	}
	return best, ok
}

func (b *JitterBuffer) sortedPending() []pending {
	seqs := make([]uint16, 0, len(b.store))
	for seq := range b.store {
		seqs = append(seqs, seq)
	}
	sort.Slice(seqs, func(i, j int) bool {
		return seqDiff(seqs[i], b.nextExpected) < seqDiff(seqs[j], b.nextExpected)
	})
	result := make([]pending, 0, len(seqs))
	for _, seq := range seqs {
		result = append(result, b.store[seq])
	}
	return result
}

// nextTimer returns the milliseconds until the earliest pending packet's
// release deadline, or nil if nothing is pending.
func (b *JitterBuffer) nextTimer(now time.Time) *int64 {
	seq, ok := b.earliestPendingSeq()
	if !ok {
		return nil
	}
	deadline := b.store[seq].arrival.Add(b.latency)
	remaining := deadline.Sub(now).Milliseconds()
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}
