package kernel

import "testing"

func TestLogPayloadRegistryOwnershipTransfer(t *testing.T) {
	h := registerLogPayload("hello")
	text, ok := takeLogPayload(h)
	if !ok || text != "hello" {
		t.Fatalf("takeLogPayload: got %q, ok=%v, want %q true", text, ok, "hello")
	}
	if _, ok := takeLogPayload(h); ok {
		t.Fatal("a claimed handle must not be claimable twice")
	}
}

func TestLogNotifyAndLogErrorReachEventLogger(t *testing.T) {
	sys, _ := newTestSystem(t)
	a, _ := sys.Register("a", PriorityNormal, nil)
	ctx := &Context{sys: sys, id: a, core: 0}

	if !ctx.LogNotify("hello %d", 1) {
		t.Fatal("LogNotify: want ok")
	}
	if !ctx.LogError("boom %d", 2) {
		t.Fatal("LogError: want ok")
	}

	msg1, ok := sys.outbound[0].TryRecv()
	if !ok || msg1.Type != MsgLogNotify {
		t.Fatalf("got %+v, want a queued MsgLogNotify", msg1)
	}
	text, ok := takeLogPayload(msg1.Primary)
	if !ok || text != "hello 1" {
		t.Fatalf("payload: got %q, ok=%v, want %q true", text, ok, "hello 1")
	}

	msg2, ok := sys.outbound[0].TryRecv()
	if !ok || msg2.Type != MsgLogError {
		t.Fatalf("got %+v, want a queued MsgLogError", msg2)
	}
}

func TestEventLoggerRejectsForeignHost(t *testing.T) {
	sys, _ := newTestSystem(t)
	el := sys.task(sys.EventLoggerID)
	el.setState(StateRun)
	ctx := &Context{sys: sys, id: sys.EventLoggerID, core: 0}

	h := registerLogPayload("from elsewhere")
	el.inbound.TrySend(Message{SenderHost: sys.hostID + 1, Type: MsgLogNotify, Primary: h})
	if res := eventLoggerTask(ctx); res != OK {
		t.Fatalf("eventLoggerTask: got %v, want OK", res)
	}
	if _, ok := takeLogPayload(h); !ok {
		t.Fatal("a foreign-host log entry must be ignored, leaving its payload unclaimed")
	}
}
