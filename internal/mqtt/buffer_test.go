package mqtt

import "testing"

func msg(b byte) pendingMsg {
	return pendingMsg{topic: "t", payload: []byte{b}}
}

func TestRingBufferEmptyDrain(t *testing.T) {
	rb := newRingBuffer(10)
	got, dropped := rb.drain()
	if got != nil {
		t.Errorf("expected nil from empty drain, got %d items", len(got))
	}
	if dropped != 0 {
		t.Errorf("expected 0 dropped, got %d", dropped)
	}
}

func TestRingBufferPushAndDrain(t *testing.T) {
	rb := newRingBuffer(10)
	for i := 0; i < 5; i++ {
		rb.push(msg(byte(i)))
	}

	got, _ := rb.drain()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i := 0; i < 5; i++ {
		if got[i].payload[0] != byte(i) {
			t.Errorf("item %d: expected payload %d, got %d", i, i, got[i].payload[0])
		}
	}

	if again, _ := rb.drain(); again != nil {
		t.Errorf("expected nil from second drain, got %d items", len(again))
	}
}

func TestRingBufferOverflowKeepsNewest(t *testing.T) {
	rb := newRingBuffer(5)
	// 0..7 into a buffer of 5 keeps 3..7
	for i := 0; i < 8; i++ {
		rb.push(msg(byte(i)))
	}

	got, dropped := rb.drain()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	if dropped != 3 {
		t.Errorf("expected 3 dropped, got %d", dropped)
	}
	for i := 0; i < 5; i++ {
		want := byte(i + 3)
		if got[i].payload[0] != want {
			t.Errorf("item %d: expected payload %d, got %d", i, want, got[i].payload[0])
		}
	}

	// The dropped counter resets with the drain.
	rb.push(msg(9))
	if _, dropped := rb.drain(); dropped != 0 {
		t.Errorf("expected dropped reset, got %d", dropped)
	}
}

func TestRingBufferMultipleCycles(t *testing.T) {
	rb := newRingBuffer(5)
	for i := 0; i < 3; i++ {
		rb.push(msg(byte(i)))
	}
	if got, _ := rb.drain(); len(got) != 3 {
		t.Fatalf("cycle 1: expected 3 items, got %d", len(got))
	}

	for i := 10; i < 14; i++ {
		rb.push(msg(byte(i)))
	}
	got, _ := rb.drain()
	if len(got) != 4 {
		t.Fatalf("cycle 2: expected 4 items, got %d", len(got))
	}
	for i, m := range got {
		if m.payload[0] != byte(10+i) {
			t.Errorf("cycle 2 item %d: expected %d, got %d", i, 10+i, m.payload[0])
		}
	}
}

func TestRingBufferLenAndFields(t *testing.T) {
	rb := newRingBuffer(10)
	if rb.len() != 0 {
		t.Errorf("expected len 0, got %d", rb.len())
	}
	rb.push(pendingMsg{topic: "gpio2key/system", payload: []byte(`{"x":1}`), qos: 1, retained: true})
	rb.push(msg(1))
	if rb.len() != 2 {
		t.Errorf("expected len 2, got %d", rb.len())
	}

	got, _ := rb.drain()
	if got[0].topic != "gpio2key/system" || got[0].qos != 1 || !got[0].retained {
		t.Errorf("fields not preserved: %+v", got[0])
	}
	if rb.len() != 0 {
		t.Errorf("expected len 0 after drain, got %d", rb.len())
	}
}
