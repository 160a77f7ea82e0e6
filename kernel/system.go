package kernel

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Clock supplies the monotonic microsecond timebase the scheduler and the
// software timer measure wake-up deadlines against. hal.Time satisfies
// this structurally; kernel does not import hal so the two packages stay
// decoupled.
type Clock interface {
	NowMicros() uint64
}

// System is the process-wide runtime: the task registry, the per-core
// outbound queues, the interrupt-inbound queue, and the handful of
// well-known task ids the other components address directly.
type System struct {
	cfg   Config
	clock Clock

	hostID HostID

	mu    sync.Mutex // guards Register; registration only happens before Run
	tasks []*Task

	state atomic.Uint32

	outbound   [2]*Ring
	irqInbound *Ring

	runPointer   [2]atomic.Int32
	runDirection [2]int32

	readyGPIO func(bool) // optional hal.GPIOPin.Write("system ready") hook

	irqStates     []irqGPIOState
	gpioConfigure func(gpio int, pullDown bool)
	gpioSetMask   func(gpio int, mask uint32)

	timerEntries []*TimerEntry
	timerSeq     atomic.Uint32

	watchdog watchdogState

	PostmanID       TaskID
	IRQHandlerID    TaskID
	TaskManagerID   TaskID
	WatchdogID      TaskID
	EventLoggerID   TaskID
	SoftwareTimerID TaskID
}

// NewSystem constructs a System with a dummy entry for the scheduler at id
// 0 followed by the six system tasks already registered, in the same order
// the original's startup sequence uses: EventLogger, Postman, Watchdog,
// SoftwareTimer, IRQHandler, TaskManager.
func NewSystem(cfg Config, clock Clock) *System {
	if cfg.MailboxSlots <= 0 {
		cfg.MailboxSlots = DefaultConfig().MailboxSlots
	}
	if cfg.MaxTasks <= 0 {
		cfg.MaxTasks = DefaultConfig().MaxTasks
	}
	s := &System{
		cfg:        cfg,
		clock:      clock,
		hostID:     0,
		irqInbound: NewRing(cfg.MailboxSlots),
	}
	s.runDirection[0] = 1
	s.runDirection[1] = -1
	s.outbound[0] = NewRing(cfg.MailboxSlots)
	s.outbound[1] = NewRing(cfg.MailboxSlots)
	s.irqStates = make([]irqGPIOState, NumberOfGPIOPorts)

	// Task 0 is a dummy entry for the scheduler itself: the traversal never
	// runs it, but keeping the slot means every real task's id lines up
	// with the original's registration order.
	s.Register("Scheduler", PriorityHigh, nil)

	s.EventLoggerID, _ = s.Register("EventLogger", PriorityLow, eventLoggerTask)
	s.PostmanID, _ = s.Register("Postman", PriorityLow, postmanTask)
	s.WatchdogID, _ = s.Register("Watchdog", PriorityLow, watchdogTask)
	s.SoftwareTimerID, _ = s.Register("SoftwareTimer", PriorityHigh, softwareTimerTask)
	s.IRQHandlerID, _ = s.Register("IRQHandler", PriorityLow, irqHandlerTask)
	s.TaskManagerID, _ = s.Register("TaskManager", PriorityLow, taskManagerTask)

	s.state.Store(uint32(StateInit))
	return s
}

// SetSystemReadyFunc installs a callback driven high once every task has
// finished Init and low again as soon as shutdown begins, before any task
// runs its final Stop pass.
func (s *System) SetSystemReadyFunc(fn func(bool)) {
	s.readyGPIO = fn
}

// SetGPIOHooks wires the interrupt demux to the platform's actual GPIO pins.
// configure is called once, the first time a GPIO gets a subscriber, to set
// its direction and pull resistor; setMask is called whenever the OR'd event
// mask for a GPIO changes so the platform can (re)arm its interrupt. Both
// are optional; leaving them nil is fine for tests that feed irqState
// directly without real hardware behind it.
func (s *System) SetGPIOHooks(configure func(gpio int, pullDown bool), setMask func(gpio int, mask uint32)) {
	s.gpioConfigure = configure
	s.gpioSetMask = setMask
}

func (s *System) irqState() []irqGPIOState { return s.irqStates }

func (s *System) configureGPIO(gpio int, pullDown bool) {
	if s.gpioConfigure != nil {
		s.gpioConfigure(gpio, pullDown)
	}
}

func (s *System) setGPIOInterruptMask(gpio int, mask uint32) {
	if s.gpioSetMask != nil {
		s.gpioSetMask(gpio, mask)
	}
}

func (s *System) nextTimerSeq() uint32 { return s.timerSeq.Add(1) }

// PushIRQEvent feeds a raw GPIO event into the interrupt-inbound queue for
// IRQHandler to demux on its next run. Platform GPIO callbacks are the only
// expected caller; they run outside any task's Context, so this bypasses
// Send's per-core outbound queue and writes the shared ring directly.
func (s *System) PushIRQEvent(gpio uint8, eventMask uint32) bool {
	return s.irqInbound.TrySend(Message{
		SenderHost:      s.hostID,
		SenderTask:      s.IRQHandlerID,
		RecipientHost:   s.hostID,
		RecipientTask:   s.IRQHandlerID,
		Type:            MessageType(gpio),
		Primary:         eventMask,
		TimestampMicros: s.Now(),
	})
}

// Register adds a task to the registry. Must be called before Run starts
// any core; the registry is not safe for concurrent mutation while
// schedulers are running.
func (s *System) Register(name string, priority Priority, fn TaskFunc) (TaskID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tasks) >= s.cfg.MaxTasks {
		return 0, fmt.Errorf("kernel: register %q: %w", name, ErrTooManyTasks)
	}
	id := TaskID(len(s.tasks))
	t := newTask(id, name, priority, fn, s.cfg.MailboxSlots)
	s.tasks = append(s.tasks, t)
	return id, nil
}

func (s *System) isSystemTask(id TaskID) bool {
	switch id {
	case 0, s.PostmanID, s.IRQHandlerID, s.TaskManagerID, s.WatchdogID, s.EventLoggerID, s.SoftwareTimerID:
		return true
	default:
		return false
	}
}

func (s *System) isValidTaskID(id TaskID) bool {
	return int(id) < len(s.tasks)
}

func (s *System) task(id TaskID) *Task {
	if !s.isValidTaskID(id) {
		return nil
	}
	return s.tasks[id]
}

// NumberOfTasks returns the number of registered tasks.
func (s *System) NumberOfTasks() int { return len(s.tasks) }

// State returns the current system state.
func (s *System) State() State { return State(s.state.Load()) }

func (s *System) setState(st State) { s.state.Store(uint32(st)) }

// Stop requests a shutdown from outside any task's Context, e.g. an
// operating-system signal handler. Equivalent to a task calling
// Context.SetSystemState(StateStop) on itself.
func (s *System) Stop() { s.setState(StateStop) }

// Now returns the current monotonic microsecond timestamp.
func (s *System) Now() uint64 { return s.clock.NowMicros() }
