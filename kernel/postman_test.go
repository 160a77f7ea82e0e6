package kernel

import "testing"

func TestPostmanRoutesOutboundAndRequestsWakeUp(t *testing.T) {
	sys, _ := newTestSystem(t)
	a, _ := sys.Register("a", PriorityNormal, nil)
	b, _ := sys.Register("b", PriorityNormal, nil)

	sys.outbound[0].TrySend(Message{SenderTask: a, RecipientTask: b, Type: MessageType(10), Primary: 5})

	pm := sys.task(sys.PostmanID)
	pm.setState(StateInit)
	ctx := &Context{sys: sys, id: sys.PostmanID, core: 0}
	postmanTask(ctx)

	pm.setState(StateRun)
	postmanTask(ctx)

	delivered, ok := sys.task(b).inbound.TryRecv()
	if !ok || delivered.Primary != 5 || delivered.SenderTask != a {
		t.Fatalf("want message routed to b's inbound, got %+v (ok=%v)", delivered, ok)
	}

	var sawWakeRequest bool
	tm := sys.task(sys.TaskManagerID)
	for {
		msg, ok := tm.inbound.TryRecv()
		if !ok {
			break
		}
		if msg.Type == MsgSetTaskSleep && TaskID(msg.Secondary) == b && msg.Primary == 0 {
			sawWakeRequest = true
		}
	}
	if !sawWakeRequest {
		t.Fatal("want Postman to ask TaskManager to wake a task that just received a message, straight into its inbound mailbox")
	}
	if !pm.isSleeping() {
		t.Fatal("want Postman to put itself to sleep directly after a Run pass")
	}
}

func TestPostmanAnswersPingFromItsOwnMailbox(t *testing.T) {
	sys, _ := newTestSystem(t)
	a, _ := sys.Register("a", PriorityNormal, nil)

	sys.task(sys.PostmanID).inbound.TrySend(Message{SenderTask: a, Type: MsgPing, Primary: 42})
	sys.task(sys.PostmanID).setState(StateRun)
	ctx := &Context{sys: sys, id: sys.PostmanID, core: 0}
	postmanTask(ctx)

	msg, ok := sys.outbound[0].TryRecv()
	if !ok || msg.Type != MsgEcho || msg.RecipientTask != a || msg.Primary != 42 {
		t.Fatalf("want an Echo(42) back to a, got %+v (ok=%v)", msg, ok)
	}
}

func TestPostmanDoesNotWakeTaskManagerForItsOwnDeliveries(t *testing.T) {
	sys, _ := newTestSystem(t)
	a, _ := sys.Register("a", PriorityNormal, nil)
	sys.outbound[0].TrySend(Message{SenderTask: a, RecipientTask: sys.TaskManagerID, Type: MessageType(10), Primary: 1})

	sys.task(sys.PostmanID).setState(StateRun)
	ctx := &Context{sys: sys, id: sys.PostmanID, core: 0}
	postmanTask(ctx)

	tm := sys.task(sys.TaskManagerID)
	for {
		msg, ok := tm.inbound.TryRecv()
		if !ok {
			break
		}
		if msg.Type == MsgSetTaskSleep && TaskID(msg.Secondary) == sys.TaskManagerID {
			t.Fatal("Postman must not ask TaskManager to wake itself")
		}
	}
}
