package kernel

import "testing"

func TestRingTrySendRecvOrder(t *testing.T) {
	r := NewRing(4)
	for i := uint32(0); i < 3; i++ {
		if !r.TrySend(Message{Primary: i}) {
			t.Fatalf("TrySend(%d): want ok", i)
		}
	}
	for i := uint32(0); i < 3; i++ {
		msg, ok := r.TryRecv()
		if !ok {
			t.Fatalf("TryRecv: want message %d", i)
		}
		if msg.Primary != i {
			t.Fatalf("TryRecv: got Primary %d, want %d", msg.Primary, i)
		}
	}
	if _, ok := r.TryRecv(); ok {
		t.Fatal("TryRecv: want empty ring to report no message")
	}
}

func TestRingFullness(t *testing.T) {
	r := NewRing(3)
	if !r.TrySend(Message{}) {
		t.Fatal("TrySend 1: want ok")
	}
	if !r.TrySend(Message{}) {
		t.Fatal("TrySend 2: want ok")
	}
	if r.TrySend(Message{}) {
		t.Fatal("TrySend 3: want ring with one sentinel slot held back to reject")
	}
	if r.Len() != 2 {
		t.Fatalf("Len: got %d, want 2", r.Len())
	}
	r.TryRecv()
	if !r.TrySend(Message{}) {
		t.Fatal("TrySend after one Recv: want ok")
	}
}

func TestRingCapacityReservesSentinelSlot(t *testing.T) {
	r := NewRing(25)
	accepted := 0
	for i := 0; i < 25; i++ {
		if r.TrySend(Message{Primary: uint32(i)}) {
			accepted++
		}
	}
	if accepted != 24 {
		t.Fatalf("accepted: got %d, want 24 (capacity 25 minus one sentinel slot)", accepted)
	}
	if r.TrySend(Message{}) {
		t.Fatal("TrySend after 24 accepted: want full ring to reject")
	}
}

func TestRingResizeDropsQueued(t *testing.T) {
	r := NewRing(4)
	r.TrySend(Message{Primary: 1})
	r.Resize(8)
	if r.Len() != 0 {
		t.Fatalf("Len after Resize: got %d, want 0", r.Len())
	}
	if r.Cap() != 8 {
		t.Fatalf("Cap after Resize: got %d, want 8", r.Cap())
	}
	if !r.TrySend(Message{Primary: 2}) {
		t.Fatal("TrySend after Resize: want ok")
	}
}
