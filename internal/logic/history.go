package logic

const (
	// MinHistorySlots is the smallest usable window: enough completed pairs
	// to hold a framing pulse plus the longest supported blink run.
	MinHistorySlots = 12

	// DefaultHistorySlots matches the primary observed controller firmware;
	// the alternate revision uses 12.
	DefaultHistorySlots = 14
)

// History is a fixed-capacity record of alternating level durations in
// milliseconds, most recent first. Slots 0 and 1 hold the duration-so-far of
// the current Low and High runs; whichever is live is continuously refreshed
// while the other keeps its value from the moment it was last closed out.
// Slots 2..N-1 hold completed runs with the most recent completed pair at
// 2-3. Even slots are always Low durations and odd slots High durations.
type History struct {
	slots []Ticks
}

// NewHistory creates a history with the given slot capacity. Capacity is
// raised to MinHistorySlots and rounded up to even so slot parity always
// aligns with level parity.
func NewHistory(capacity int) *History {
	if capacity < MinHistorySlots {
		capacity = MinHistorySlots
	}
	if capacity%2 != 0 {
		capacity++
	}
	return &History{slots: make([]Ticks, capacity)}
}

// Record refreshes the live slot for level with the duration observed so
// far. Repeated calls while the level is in progress only rewrite the live
// slot; completed slots are never touched.
func (h *History) Record(level Level, soFar Ticks) {
	h.slots[liveSlot(level)] = soFar
}

// Rotate closes out the just-completed Low/High cycle: completed slots shift
// toward the tail by one pair (the oldest pair falls off), the live pair
// moves into slots 2-3, and the live pair resets to zero. Called on the
// rising edge only, which anchors each frame to a full cycle so the
// classifiers always see aligned Low/High pairs.
func (h *History) Rotate() {
	n := len(h.slots)
	copy(h.slots[4:n], h.slots[2:n-2])
	h.slots[2] = h.slots[0]
	h.slots[3] = h.slots[1]
	h.slots[0] = 0
	h.slots[1] = 0
}

// Live returns the duration-so-far of the run at the given level.
func (h *History) Live(level Level) Ticks {
	return h.slots[liveSlot(level)]
}

// At returns the duration in slot i.
func (h *History) At(i int) Ticks {
	return h.slots[i]
}

// Len returns the slot capacity.
func (h *History) Len() int {
	return len(h.slots)
}

// Timings copies out the first n slots, zero padded if n exceeds capacity.
func (h *History) Timings(n int) []Ticks {
	out := make([]Ticks, n)
	copy(out, h.slots)
	return out
}

func liveSlot(level Level) int {
	if level == High {
		return 1
	}
	return 0
}
