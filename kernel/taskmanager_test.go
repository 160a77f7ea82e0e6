package kernel

import "testing"

func newTaskManagerContext(sys *System) *Context {
	return &Context{sys: sys, id: sys.TaskManagerID, core: 0}
}

func TestTaskManagerInitPutsItselfPostmanAndIRQHandlerToSleep(t *testing.T) {
	sys, _ := newTestSystem(t)
	sys.task(sys.TaskManagerID).setState(StateInit)
	taskManagerTask(newTaskManagerContext(sys))

	for _, id := range []TaskID{sys.TaskManagerID, sys.PostmanID, sys.IRQHandlerID} {
		if !sys.task(id).isSleeping() {
			t.Errorf("task %d: want asleep after TaskManager's Init pass", id)
		}
	}
}

func TestTaskManagerSetTaskSleepAndWake(t *testing.T) {
	sys, clock := newTestSystem(t)
	clock.set(2000)
	id, _ := sys.Register("a", PriorityNormal, nil)
	tm := sys.task(sys.TaskManagerID)
	tm.setState(StateRun)
	ctx := newTaskManagerContext(sys)

	sendToInbox(sys, sys.TaskManagerID, MsgSetTaskSleep, 1, uint32(id))
	taskManagerTask(ctx)
	if !sys.task(id).isSleeping() {
		t.Fatal("want task put to sleep")
	}

	sendToInbox(sys, sys.TaskManagerID, MsgSetTaskSleep, 0, uint32(id))
	taskManagerTask(ctx)
	if sys.task(id).isSleeping() {
		t.Fatal("want task woken")
	}
	if sys.task(id).wakeUpMicrosAt() != 2000 {
		t.Fatalf("wake-up deadline: got %d, want 2000 (now)", sys.task(id).wakeUpMicrosAt())
	}
}

func TestTaskManagerSetTaskPriority(t *testing.T) {
	sys, _ := newTestSystem(t)
	id, _ := sys.Register("a", PriorityLow, nil)
	sys.task(sys.TaskManagerID).setState(StateRun)
	ctx := newTaskManagerContext(sys)

	sendToInbox(sys, sys.TaskManagerID, MsgSetTaskPriority, uint32(PriorityHigh), uint32(id))
	taskManagerTask(ctx)

	if sys.task(id).view().Priority != PriorityHigh {
		t.Fatalf("priority: got %d, want %d", sys.task(id).view().Priority, PriorityHigh)
	}
}

func TestTaskManagerWakeAllTasks(t *testing.T) {
	sys, _ := newTestSystem(t)
	a, _ := sys.Register("a", PriorityNormal, nil)
	b, _ := sys.Register("b", PriorityNormal, nil)
	sys.task(a).setSleeping(true)
	sys.task(b).setSleeping(true)
	sys.task(sys.TaskManagerID).setState(StateRun)
	ctx := newTaskManagerContext(sys)

	sendToInbox(sys, sys.TaskManagerID, MsgWakeAllTasks, 0, 0)
	taskManagerTask(ctx)

	if sys.task(a).isSleeping() || sys.task(b).isSleeping() {
		t.Fatal("want every sleeping task woken")
	}
}

func TestTaskManagerDedicateToTaskSleepsEveryOtherUserTask(t *testing.T) {
	sys, _ := newTestSystem(t)
	chosen, _ := sys.Register("chosen", PriorityNormal, nil)
	other, _ := sys.Register("other", PriorityNormal, nil)
	sys.task(sys.TaskManagerID).setState(StateRun)
	ctx := newTaskManagerContext(sys)

	sendToInbox(sys, sys.TaskManagerID, MsgDedicateToTask, 0, uint32(chosen))
	taskManagerTask(ctx)

	if sys.task(other).isSleeping() == false {
		t.Fatal("want every other non-system task put to sleep")
	}
	if sys.task(chosen).isSleeping() {
		t.Fatal("the dedicated task itself must stay awake")
	}
	if sys.task(sys.PostmanID).isSleeping() {
		t.Fatal("system tasks must not be put to sleep by DedicateToTask")
	}
}

func TestTaskManagerSetSystemState(t *testing.T) {
	sys, _ := newTestSystem(t)
	sys.task(sys.TaskManagerID).setState(StateRun)
	ctx := newTaskManagerContext(sys)

	sendToInbox(sys, sys.TaskManagerID, MsgSetSystemState, uint32(StateStop), 0)
	taskManagerTask(ctx)

	if sys.State() != StateStop {
		t.Fatalf("system state: got %v, want %v", sys.State(), StateStop)
	}
}
