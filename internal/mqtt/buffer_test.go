package mqtt

import (
	"fmt"
	"testing"
)

func TestRingBufferPushDrain(t *testing.T) {
	r := newRingBuffer(4)

	r.push(bufferedMsg{topic: "a"})
	r.push(bufferedMsg{topic: "b"})

	if r.len() != 2 {
		t.Fatalf("len: got %d, want 2", r.len())
	}

	msgs := r.drainAll()
	if len(msgs) != 2 {
		t.Fatalf("drained: got %d, want 2", len(msgs))
	}
	if msgs[0].topic != "a" || msgs[1].topic != "b" {
		t.Errorf("wrong order: %q, %q", msgs[0].topic, msgs[1].topic)
	}
	if r.len() != 0 {
		t.Errorf("len after drain: got %d, want 0", r.len())
	}
}

func TestRingBufferOverflowDropsOldest(t *testing.T) {
	r := newRingBuffer(3)

	for i := 0; i < 5; i++ {
		r.push(bufferedMsg{topic: fmt.Sprintf("m%d", i)})
	}

	msgs := r.drainAll()
	if len(msgs) != 3 {
		t.Fatalf("drained: got %d, want 3", len(msgs))
	}
	want := []string{"m2", "m3", "m4"}
	for i, w := range want {
		if msgs[i].topic != w {
			t.Errorf("msg %d: got %q, want %q", i, msgs[i].topic, w)
		}
	}
}

func TestRingBufferDrainEmpty(t *testing.T) {
	r := newRingBuffer(2)
	if msgs := r.drainAll(); msgs != nil {
		t.Errorf("expected nil drain on empty buffer, got %v", msgs)
	}
}

func TestRingBufferReusableAfterDrain(t *testing.T) {
	r := newRingBuffer(2)
	r.push(bufferedMsg{topic: "x"})
	r.drainAll()

	r.push(bufferedMsg{topic: "y"})
	msgs := r.drainAll()
	if len(msgs) != 1 || msgs[0].topic != "y" {
		t.Errorf("unexpected drain result: %v", msgs)
	}
}
