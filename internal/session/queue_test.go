package session

import (
	"errors"
	"fmt"
	"testing"

	"github.com/kit678/VoiceAgentPlanner/internal/protocol"
)

func textEnvelope(t *testing.T, text string) protocol.Envelope {
	t.Helper()
	env, err := protocol.NewEnvelope(protocol.KindTextInput, protocol.TextInputPayload{Text: text})
	if err != nil {
		t.Fatalf("NewEnvelope failed: %v", err)
	}
	return env
}

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue(10, OverflowDropOldest)

	for i := 0; i < 5; i++ {
		if !q.Enqueue(textEnvelope(t, fmt.Sprintf("msg-%d", i))) {
			t.Fatalf("Enqueue %d failed", i)
		}
	}

	var got []string
	sent, err := q.Flush(func(env protocol.Envelope) error {
		var p protocol.TextInputPayload
		if err := protocol.DecodePayload(env, &p); err != nil {
			return err
		}
		got = append(got, p.Text)
		return nil
	})
	if err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if sent != 5 {
		t.Errorf("sent = %d, want 5", sent)
	}

	for i, text := range got {
		want := fmt.Sprintf("msg-%d", i)
		if text != want {
			t.Errorf("got[%d] = %q, want %q", i, text, want)
		}
	}
	if q.Len() != 0 {
		t.Errorf("Len = %d after full flush, want 0", q.Len())
	}
}

func TestQueue_FlushStopsOnFailure(t *testing.T) {
	q := NewQueue(10, OverflowDropOldest)

	for i := 0; i < 4; i++ {
		q.Enqueue(textEnvelope(t, fmt.Sprintf("msg-%d", i)))
	}

	// Fail on the third envelope; it and everything after must stay queued.
	calls := 0
	sent, err := q.Flush(func(env protocol.Envelope) error {
		calls++
		if calls == 3 {
			return errors.New("write failed")
		}
		return nil
	})
	if err == nil {
		t.Fatal("Flush should report the transmit error")
	}
	if sent != 2 {
		t.Errorf("sent = %d, want 2", sent)
	}
	if q.Len() != 2 {
		t.Errorf("Len = %d, want 2 (failed + remaining)", q.Len())
	}

	// Retry succeeds and preserves order.
	var got []string
	if _, err := q.Flush(func(env protocol.Envelope) error {
		var p protocol.TextInputPayload
		if err := protocol.DecodePayload(env, &p); err != nil {
			return err
		}
		got = append(got, p.Text)
		return nil
	}); err != nil {
		t.Fatalf("retry Flush failed: %v", err)
	}
	if len(got) != 2 || got[0] != "msg-2" || got[1] != "msg-3" {
		t.Errorf("retry order = %v, want [msg-2 msg-3]", got)
	}
}

func TestQueue_DropOldest(t *testing.T) {
	q := NewQueue(3, OverflowDropOldest)

	for i := 0; i < 5; i++ {
		if !q.Enqueue(textEnvelope(t, fmt.Sprintf("msg-%d", i))) {
			t.Fatalf("drop_oldest Enqueue %d should always succeed", i)
		}
	}

	if q.Len() != 3 {
		t.Fatalf("Len = %d, want 3", q.Len())
	}

	var got []string
	q.Flush(func(env protocol.Envelope) error {
		var p protocol.TextInputPayload
		protocol.DecodePayload(env, &p)
		got = append(got, p.Text)
		return nil
	})

	want := []string{"msg-2", "msg-3", "msg-4"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if stats := q.Stats(); stats.TotalDropped != 2 {
		t.Errorf("TotalDropped = %d, want 2", stats.TotalDropped)
	}
}

func TestQueue_RejectNew(t *testing.T) {
	q := NewQueue(2, OverflowRejectNew)

	if !q.Enqueue(textEnvelope(t, "a")) || !q.Enqueue(textEnvelope(t, "b")) {
		t.Fatal("enqueue under capacity should succeed")
	}
	if q.Enqueue(textEnvelope(t, "c")) {
		t.Error("enqueue past capacity should be rejected")
	}

	// Queue unchanged: still a then b.
	var got []string
	q.Flush(func(env protocol.Envelope) error {
		var p protocol.TextInputPayload
		protocol.DecodePayload(env, &p)
		got = append(got, p.Text)
		return nil
	})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("got = %v, want [a b]", got)
	}
}

func TestQueue_WrapAround(t *testing.T) {
	q := NewQueue(4, OverflowDropOldest)

	// Interleave enqueue and flush to push head/tail past the ring boundary.
	for round := 0; round < 3; round++ {
		for i := 0; i < 3; i++ {
			q.Enqueue(textEnvelope(t, fmt.Sprintf("r%d-%d", round, i)))
		}
		var got []string
		q.Flush(func(env protocol.Envelope) error {
			var p protocol.TextInputPayload
			protocol.DecodePayload(env, &p)
			got = append(got, p.Text)
			return nil
		})
		for i := 0; i < 3; i++ {
			want := fmt.Sprintf("r%d-%d", round, i)
			if got[i] != want {
				t.Errorf("round %d: got[%d] = %q, want %q", round, i, got[i], want)
			}
		}
	}
}

func TestQueue_Clear(t *testing.T) {
	q := NewQueue(10, OverflowDropOldest)
	q.Enqueue(textEnvelope(t, "a"))
	q.Enqueue(textEnvelope(t, "b"))

	q.Clear()

	if q.Len() != 0 {
		t.Errorf("Len = %d after Clear, want 0", q.Len())
	}
}
