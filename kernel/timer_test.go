package kernel

import "testing"

func sendToInbox(sys *System, to TaskID, typ MessageType, primary, secondary uint32) {
	sys.task(to).inbound.TrySend(Message{
		RecipientTask: to,
		Type:          typ,
		Primary:       primary,
		Secondary:     secondary,
	})
}

func TestSoftwareTimerSetFireRepeat(t *testing.T) {
	sys, clock := newTestSystem(t)
	clock.set(0)
	owner, _ := sys.Register("owner", PriorityNormal, nil)

	tmr := sys.task(sys.SoftwareTimerID)
	ctx := &Context{sys: sys, id: sys.SoftwareTimerID, core: 0}

	tmr.setState(StateInit)
	softwareTimerTask(ctx)
	if len(sys.timerEntries) != 0 {
		t.Fatalf("after Init: got %d timer entries, want 0", len(sys.timerEntries))
	}
	initMsg, ok := sys.outbound[0].TryRecv()
	if !ok || initMsg.Type != MsgSetTaskSleep || TaskID(initMsg.Secondary) != sys.SoftwareTimerID {
		t.Fatalf("after Init: want a self-sleep request queued, got %+v (ok=%v)", initMsg, ok)
	}

	entry := &TimerEntry{Task: owner, TimerID: 5, Repeating: true, IntervalMsec: 10, NextFireMicros: 10000, SeqNr: 1}
	handle := registerTimerEntry(entry)
	sendToInbox(sys, sys.SoftwareTimerID, MsgSetTimer, handle, 0)

	tmr.setState(StateRun)
	softwareTimerTask(ctx)
	if len(sys.timerEntries) != 1 {
		t.Fatalf("after registering: got %d timer entries, want 1", len(sys.timerEntries))
	}
	if tmr.wakeUpMicrosAt() != 10000 {
		t.Fatalf("wake-up deadline: got %d, want 10000", tmr.wakeUpMicrosAt())
	}

	clock.set(10001)
	softwareTimerTask(ctx)

	msg, ok := sys.outbound[0].TryRecv()
	if !ok {
		t.Fatal("want a fired timer message on the outbound queue")
	}
	if msg.RecipientTask != owner || msg.Type != MessageType(5) || msg.Primary != 1 {
		t.Fatalf("got %+v, want recipient %d type 5 primary 1", msg, owner)
	}
	if len(sys.timerEntries) != 1 {
		t.Fatalf("after firing a repeating timer: got %d entries, want 1 (rescheduled)", len(sys.timerEntries))
	}
	if sys.timerEntries[0].NextFireMicros != 20000 {
		t.Fatalf("rescheduled deadline: got %d, want 20000", sys.timerEntries[0].NextFireMicros)
	}
}

func TestSoftwareTimerCancelBySequence(t *testing.T) {
	sys, clock := newTestSystem(t)
	clock.set(0)
	owner, _ := sys.Register("owner", PriorityNormal, nil)
	sys.timerEntries = []*TimerEntry{
		{Task: owner, TimerID: 1, NextFireMicros: 50000, SeqNr: 9},
	}

	tmr := sys.task(sys.SoftwareTimerID)
	tmr.setState(StateRun)
	ctx := &Context{sys: sys, id: sys.SoftwareTimerID, core: 0}

	sendToInbox(sys, sys.SoftwareTimerID, MsgCancelTimerBySeqNr, 9, 0)
	softwareTimerTask(ctx)

	if len(sys.timerEntries) != 0 {
		t.Fatalf("after cancel by sequence: got %d entries, want 0", len(sys.timerEntries))
	}
	sleepMsg, ok := sys.outbound[0].TryRecv()
	if !ok || sleepMsg.Type != MsgSetTaskSleep || TaskID(sleepMsg.Secondary) != sys.SoftwareTimerID {
		t.Fatalf("after draining every timer: want a self-sleep request queued, got %+v (ok=%v)", sleepMsg, ok)
	}
}

func TestSoftwareTimerCancelByTaskAndID(t *testing.T) {
	sys, clock := newTestSystem(t)
	clock.set(0)
	owner, _ := sys.Register("owner", PriorityNormal, nil)
	other, _ := sys.Register("other", PriorityNormal, nil)
	sys.timerEntries = []*TimerEntry{
		{Task: owner, TimerID: 1, NextFireMicros: 50000, SeqNr: 1},
		{Task: other, TimerID: 1, NextFireMicros: 50000, SeqNr: 2},
	}

	tmr := sys.task(sys.SoftwareTimerID)
	tmr.setState(StateRun)
	ctx := &Context{sys: sys, id: sys.SoftwareTimerID, core: 0}

	sys.task(sys.SoftwareTimerID).inbound.TrySend(Message{
		RecipientTask: sys.SoftwareTimerID,
		SenderTask:    owner,
		Type:          MsgCancelTimer,
		Primary:       1,
	})
	softwareTimerTask(ctx)

	if len(sys.timerEntries) != 1 {
		t.Fatalf("after cancel: got %d entries, want 1", len(sys.timerEntries))
	}
	if sys.timerEntries[0].Task != other {
		t.Fatalf("surviving entry belongs to task %d, want %d", sys.timerEntries[0].Task, other)
	}
}
