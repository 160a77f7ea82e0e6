package kernel

import (
	"sync/atomic"
)

// State is a task's (or the system's) run state. Values beyond the ones
// named here are permitted for MsgSetTaskState requests, which accept
// arbitrary application-defined states.
type State uint8

const (
	StateDown State = iota
	StateStop
	StateRun
	StateInit
	StateReboot // reserved, no transition drives this state; see DESIGN.md
)

// TaskView is the immutable snapshot of a task's metadata handed to a
// TaskFunc on each invocation. Tasks observe their own state through it
// rather than through a raw pointer into the registry, so the function
// signature stays uniform across every task regardless of what it does
// internally.
type TaskView struct {
	ID            TaskID
	Name          string
	State         State
	Priority      Priority
	Debug         DebugLevel
	RunningOnCore int
}

// TaskFunc is the single signature every task, system or user, implements.
type TaskFunc func(ctx *Context) Result

// Task is a registry entry. Fields touched from more than one goroutine
// (the two core schedulers, Postman, TaskManager) are atomic so reads and
// writes need no lock; priority and debug level, changed rarely and read
// often, use atomic too since any core may read them mid-run. id, name and
// fn are set once at registration and never change.
type Task struct {
	id   TaskID
	name string
	fn   TaskFunc

	state         atomic.Uint32 // State
	priority      atomic.Uint32 // Priority
	debug         atomic.Uint32 // DebugLevel
	sleeping      atomic.Bool
	wakeUpMicros  atomic.Uint64
	runningOnCore atomic.Int32

	inbound *Ring
}

func newTask(id TaskID, name string, priority Priority, fn TaskFunc, mailboxSlots int) *Task {
	t := &Task{
		id:      id,
		name:    name,
		fn:      fn,
		inbound: NewRing(mailboxSlots),
	}
	t.state.Store(uint32(StateDown))
	t.priority.Store(uint32(priority))
	t.sleeping.Store(false)
	t.runningOnCore.Store(-1)
	return t
}

func (t *Task) setState(st State)       { t.state.Store(uint32(st)) }
func (t *Task) setPriority(p Priority)   { t.priority.Store(uint32(p)) }
func (t *Task) setDebug(d DebugLevel)    { t.debug.Store(uint32(d)) }
func (t *Task) setSleeping(sleep bool)   { t.sleeping.Store(sleep) }
func (t *Task) isSleeping() bool         { return t.sleeping.Load() }
func (t *Task) setWakeUpMicros(v uint64) { t.wakeUpMicros.Store(v) }
func (t *Task) wakeUpMicrosAt() uint64   { return t.wakeUpMicros.Load() }

// wake clears the sleep flag and brings the wake-up deadline to "now",
// but only if it is currently sleeping - an already-awake task keeps its
// existing deadline untouched.
func (t *Task) wake(nowMicros uint64) {
	if t.sleeping.CompareAndSwap(true, false) {
		t.wakeUpMicros.Store(nowMicros)
	}
}

func (t *Task) view() TaskView {
	return TaskView{
		ID:            t.id,
		Name:          t.name,
		State:         State(t.state.Load()),
		Priority:      Priority(t.priority.Load()),
		Debug:         DebugLevel(t.debug.Load()),
		RunningOnCore: int(t.runningOnCore.Load()),
	}
}
