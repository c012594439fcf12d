package gpio

import (
	"errors"
	"testing"

	"github.com/mbezuidenhout/tasmota-gate/internal/logic"
)

func TestFakeReaderRead(t *testing.T) {
	samples := []logic.Level{logic.High, logic.Low, logic.High}

	f := NewFakeReader(samples)

	for i, want := range samples {
		got, err := f.Read()
		if err != nil {
			t.Fatalf("sample %d: unexpected error: %v", i, err)
		}
		if got != want {
			t.Errorf("sample %d: expected %v, got %v", i, want, got)
		}
	}

	// Further reads repeat the last sample.
	got, err := f.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != logic.High {
		t.Errorf("repeat read: expected High, got %v", got)
	}
}

func TestFakeReaderNoSamples(t *testing.T) {
	f := NewFakeReader(nil)

	if _, err := f.Read(); err == nil {
		t.Error("expected error with no samples")
	}
}

func TestFakeReaderError(t *testing.T) {
	f := NewFakeReader([]logic.Level{logic.High})
	f.ReadError = errors.New("simulated error")

	_, err := f.Read()
	if err == nil {
		t.Error("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeReaderClose(t *testing.T) {
	f := NewFakeReader([]logic.Level{logic.High})

	if f.Closed {
		t.Error("should not be closed initially")
	}

	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestFakeReaderReset(t *testing.T) {
	f := NewFakeReader([]logic.Level{logic.High, logic.Low})

	f.Read()
	f.Reset()

	got, _ := f.Read()
	if got != logic.High {
		t.Errorf("after reset: expected High, got %v", got)
	}
}
