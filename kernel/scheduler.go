package kernel

import "time"

// RunCore drives one core's half of the cooperative scheduler until the
// system reaches Down. Core 0 performs Init and the final Stop pass; core 1
// spins waiting for those transitions and otherwise runs the identical work
// loop, descending through the task table while core 0 ascends.
func (s *System) RunCore(coreID int) Result {
	for s.State() > StateDown {
		switch s.State() {
		case StateInit:
			if coreID == 0 {
				s.initAllTasks()
			} else {
				for s.State() == StateInit {
					time.Sleep(5 * time.Millisecond)
				}
			}
		case StateRun:
			s.runLoop(coreID)
		default:
			// Stop, or any value a task set via SetSystemState that isn't
			// Init/Run: treat it as a request to shut down.
			if coreID == 0 {
				s.stopAllTasks()
			} else {
				s.runPointer[coreID].Store(-1)
				for s.State() == StateStop {
					time.Sleep(5 * time.Millisecond)
				}
			}
		}
	}
	return OK
}

// initAllTasks sets every real task (id >= 1; id 0 is the scheduler's own
// dummy slot) to Init and runs it once. A non-OK return stops the system
// instead of proceeding to Run. On success it computes each task's staggered
// first wake-up deadline, runs Postman and TaskManager once to flush
// whatever Init produced, then raises the system-ready signal.
func (s *System) initAllTasks() {
	n := s.NumberOfTasks()
	for id := 1; id < n; id++ {
		tid := TaskID(id)
		t := s.task(tid)
		t.setState(StateInit)
		s.runPointer[0].Store(int32(id))
		if s.runTaskWithCollisionGuard(0, tid) != OK {
			s.setState(StateStop)
			return
		}
		t.setState(StateRun)
	}

	s.assignStartupOffsets(n)

	s.runPointer[0].Store(int32(s.PostmanID))
	s.runTaskWithCollisionGuard(0, s.PostmanID)
	s.runPointer[0].Store(int32(s.TaskManagerID))
	s.runTaskWithCollisionGuard(0, s.TaskManagerID)

	s.setState(StateRun)
	if s.readyGPIO != nil {
		s.readyGPIO(true)
	}
}

// assignStartupOffsets spreads each priority bucket's first wake-up evenly
// across its own priority interval, so e.g. three priority-high tasks don't
// all fire on the same microsecond, and staggers the buckets relative to
// each other by half of the previous bucket's offset.
func (s *System) assignStartupOffsets(n int) {
	var high, normal, other int
	for id := 1; id < n; id++ {
		switch s.task(TaskID(id)).view().Priority {
		case PriorityHigh:
			high++
		case PriorityNormal:
			normal++
		default:
			other++
		}
	}

	highOffset := roundedOffset(uint64(PriorityHigh), high)
	normalOffset := roundedOffset(uint64(PriorityNormal), normal)
	otherOffset := roundedOffset(uint64(PriorityLow), other)

	start := s.Now() + uint64(s.cfg.StartupDelay.Microseconds())
	var highCount, normalCount, otherCount uint64
	for id := 1; id < n; id++ {
		t := s.task(TaskID(id))
		switch t.view().Priority {
		case PriorityHigh:
			t.setWakeUpMicros(start + highCount*highOffset)
			highCount++
		case PriorityNormal:
			t.setWakeUpMicros(start + highOffset/2 + normalCount*normalOffset)
			normalCount++
		default:
			t.setWakeUpMicros(start + normalOffset/2 + otherCount*otherOffset)
			otherCount++
		}
	}
}

func roundedOffset(total uint64, count int) uint64 {
	if count <= 0 {
		return 0
	}
	n := uint64(count)
	return (total + n/2) / n
}

// stopAllTasks lowers the system-ready signal, gives every task one last
// Stop invocation in id order, then runs Postman and the event log a final
// time so anything logged during Stop actually reaches its sink before the
// system goes Down.
func (s *System) stopAllTasks() {
	if s.readyGPIO != nil {
		s.readyGPIO(false)
	}

	n := s.NumberOfTasks()
	for id := 1; id < n; id++ {
		tid := TaskID(id)
		t := s.task(tid)
		t.setState(StateStop)
		s.runPointer[0].Store(int32(id))
		s.runTaskWithCollisionGuard(0, tid)
	}

	// Postman and EventLogger already had their own Stop pass above; run
	// them once more in Run state so they route and print what the other
	// tasks queued while stopping, then leave them Down.
	s.task(s.PostmanID).setState(StateRun)
	s.runPointer[0].Store(int32(s.PostmanID))
	s.runTaskWithCollisionGuard(0, s.PostmanID)
	s.task(s.EventLoggerID).setState(StateRun)
	s.runPointer[0].Store(int32(s.EventLoggerID))
	s.runTaskWithCollisionGuard(0, s.EventLoggerID)
	s.task(s.PostmanID).setState(StateDown)
	s.task(s.EventLoggerID).setState(StateDown)

	s.setState(StateDown)
}

// runLoop is the steady-state work loop: three passes per cycle, tagged
// with a priority ceiling that cycles High -> Normal -> Low -> High, core 0
// ascending through the task table and core 1 descending.
func (s *System) runLoop(coreID int) {
	ceiling := PriorityHigh
	dir := int(s.runDirection[coreID])

	for s.State() == StateRun {
		n := s.NumberOfTasks()
		i := 1
		if dir < 0 {
			i = n - 1
		}
		for i >= 1 && i < n && s.State() == StateRun {
			id := TaskID(i)
			s.considerTask(coreID, id, ceiling)
			s.checkIRQQueue(coreID)
			i += dir
		}

		switch ceiling {
		case PriorityHigh:
			ceiling = PriorityNormal
		case PriorityNormal:
			ceiling = PriorityLow
		default:
			ceiling = PriorityHigh
		}
	}
}

// considerTask runs a single candidate if it passes every filter: the other
// core isn't looking at the same id, its priority falls within this pass's
// ceiling, it isn't sleeping, and its wake-up deadline has arrived. A run
// that produced outbound messages triggers Postman and TaskManager before
// the cycle continues; the task's next wake-up is then pushed forward past
// "now" by whole multiples of its own priority interval.
func (s *System) considerTask(coreID int, id TaskID, ceiling Priority) {
	s.runPointer[coreID].Store(int32(id))
	t := s.task(id)
	other := 1 - coreID

	if s.runPointer[other].Load() == int32(id) {
		return
	}
	view := t.view()
	if view.Priority > ceiling || t.isSleeping() || t.wakeUpMicrosAt() > s.Now() {
		return
	}

	if s.runTaskWithCollisionGuard(coreID, id) != OK {
		s.setState(StateStop)
		return
	}

	if s.outbound[coreID].Len() > 0 {
		s.runSideTasks(coreID, id, s.PostmanID, s.TaskManagerID)
	}

	now := s.Now()
	for t.wakeUpMicrosAt() <= now {
		t.setWakeUpMicros(t.wakeUpMicrosAt() + uint64(view.Priority))
	}
}

// checkIRQQueue runs the interrupt demux (and Postman/TaskManager behind
// it) whenever the hardware callback has queued a raw event, regardless of
// whose turn it nominally is in the priority cycle - interrupts can't wait
// for the next high-priority pass.
func (s *System) checkIRQQueue(coreID int) {
	if s.irqInbound.Len() == 0 {
		return
	}
	restore := TaskID(s.runPointer[coreID].Load())
	s.runSideTasks(coreID, restore, s.IRQHandlerID, s.PostmanID, s.TaskManagerID)
}

// runSideTasks runs each id in order on this core, ignoring their return
// values (matching the original's "no checking for return values" when
// flushing Postman/TaskManager/IRQHandler mid-cycle), then restores the run
// pointer so the calling loop can resume where it left off.
func (s *System) runSideTasks(coreID int, restore TaskID, ids ...TaskID) {
	for _, id := range ids {
		s.runPointer[coreID].Store(int32(id))
		s.runTaskWithCollisionGuard(coreID, id)
	}
	s.runPointer[coreID].Store(int32(restore))
}

// runTaskWithCollisionGuard is the single place a task function actually
// gets called. It busy-waits if the other core's run pointer still matches
// this id - a defensive second check behind considerTask's own collision
// filter, covering the window between that check and this call.
func (s *System) runTaskWithCollisionGuard(coreID int, id TaskID) Result {
	other := 1 - coreID
	for s.runPointer[other].Load() == int32(id) {
		s.runPointer[coreID].Store(-1)
		time.Sleep(time.Duration(5+coreID*2) * time.Microsecond)
		s.runPointer[coreID].Store(int32(id))
	}

	t := s.task(id)
	if t == nil || t.fn == nil {
		return OK
	}
	t.runningOnCore.Store(int32(coreID))
	if s.cfg.StepDelay > 0 {
		time.Sleep(s.cfg.StepDelay)
	}
	res := t.fn(&Context{sys: s, id: id, core: coreID})
	if s.cfg.StepDelay > 0 {
		time.Sleep(s.cfg.StepDelay)
	}
	return res
}
