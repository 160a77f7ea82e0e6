package kernel

import "testing"

func TestMessageEncodeDecodeRoundTrip(t *testing.T) {
	want := Message{
		SenderHost:      1,
		SenderTask:      2,
		RecipientHost:   3,
		RecipientTask:   4,
		Type:            MsgPing,
		Primary:         0xdeadbeef,
		Secondary:       0x0badf00d,
		TimestampMicros: 0x0102030405060708,
	}
	buf := want.Encode()
	got := DecodeMessage(buf[:])
	if got != want {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestDecodeMessageShortBuffer(t *testing.T) {
	got := DecodeMessage(make([]byte, MessageWireSize-1))
	if got != (Message{}) {
		t.Fatalf("DecodeMessage on short buffer: got %+v, want zero value", got)
	}
}

func TestPackUnpackSubscription(t *testing.T) {
	cases := []struct {
		pullDown   bool
		antiBounce uint32
	}{
		{false, 0},
		{true, 0},
		{false, 12345},
		{true, 0x00FFFFFF},
		{true, 0xFFFFFFFF}, // anti-bounce must be masked to 24 bits
	}
	for _, c := range cases {
		packed := PackSubscription(c.pullDown, c.antiBounce)
		gotPull, gotAB := UnpackSubscription(packed)
		if gotPull != c.pullDown {
			t.Errorf("PackSubscription(%v, %#x): pullDown got %v, want %v", c.pullDown, c.antiBounce, gotPull, c.pullDown)
		}
		wantAB := c.antiBounce & 0x00FFFFFF
		if gotAB != wantAB {
			t.Errorf("PackSubscription(%v, %#x): antiBounce got %#x, want %#x", c.pullDown, c.antiBounce, gotAB, wantAB)
		}
	}
}
