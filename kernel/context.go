package kernel

import "fmt"

// Context is handed to a TaskFunc on every invocation; it is the task's
// only route to the rest of the system; a task never touches another
// task's Ring or registry entry directly.
type Context struct {
	sys  *System
	id   TaskID
	core int
}

// View returns this task's own metadata snapshot.
func (c *Context) View() TaskView { return c.sys.task(c.id).view() }

// TaskView looks up another task's metadata snapshot.
func (c *Context) TaskView(id TaskID) (TaskView, bool) {
	t := c.sys.task(id)
	if t == nil {
		return TaskView{}, false
	}
	return t.view(), true
}

// Now returns the current monotonic microsecond timestamp.
func (c *Context) Now() uint64 { return c.sys.Now() }

// SystemState returns the current system state.
func (c *Context) SystemState() State { return c.sys.State() }

// PendingCount returns the number of unread messages in this task's inbound
// mailbox.
func (c *Context) PendingCount() int { return c.sys.task(c.id).inbound.Len() }

// Recv dequeues the oldest message for this task, if any.
func (c *Context) Recv() (Message, bool) { return c.sys.task(c.id).inbound.TryRecv() }

// Send enqueues a message onto this task's core's outbound queue, where
// Postman will pick it up on its next run and route it to the recipient's
// inbound mailbox. Send never blocks: a full outbound queue is reported as
// a failed send rather than stalling the calling task.
func (c *Context) Send(to TaskID, typ MessageType, primary, secondary uint32) bool {
	msg := Message{
		SenderHost:    c.sys.hostID,
		SenderTask:    c.id,
		RecipientHost: c.sys.hostID,
		RecipientTask: to,
		Type:          typ,
		Primary:       primary,
		Secondary:     secondary,
	}
	msg.TimestampMicros = c.sys.Now()
	return c.sys.outbound[c.core].TrySend(msg)
}

// SetTaskAttribute requests TaskManager change an attribute of target.
// Permission checks happen here, before anything reaches TaskManager's own
// mailbox - a non-system task can never even enqueue a request to alter a
// system task's priority, sleep state or wake-up time.
func (c *Context) SetTaskAttribute(target TaskID, attr MessageType, setting uint32) Result {
	if !c.sys.isValidTaskID(target) {
		return ErrTaskNotFound
	}
	switch attr {
	case MsgSetTaskWakeUp, MsgSetTaskPriority, MsgSetTaskSleep:
		if c.sys.isSystemTask(target) && !c.sys.isSystemTask(c.id) {
			return ErrInvalidOperation
		}
		c.Send(c.sys.TaskManagerID, attr, setting, uint32(target))
	case MsgDedicateToTask:
		if c.sys.isSystemTask(target) {
			return ErrInvalidOperation
		}
		c.Send(c.sys.TaskManagerID, attr, setting, uint32(target))
	case MsgWakeAllTasks, MsgSetTaskState, MsgSetTaskDebug:
		c.Send(c.sys.TaskManagerID, attr, setting, uint32(target))
	default:
		return ErrInvalidOperation
	}
	return OK
}

// SetMyTaskAttribute is SetTaskAttribute targeting the calling task itself.
func (c *Context) SetMyTaskAttribute(attr MessageType, setting uint32) Result {
	return c.SetTaskAttribute(c.id, attr, setting)
}

// SubscribeGPIO asks the interrupt demux to forward events matching mask on
// the given GPIO to this task, packing the pull-direction and anti-bounce
// window into the wire payload exactly as PackSubscription defines.
// Sending IRQUnsubscribe as the mask removes the subscription instead.
func (c *Context) SubscribeGPIO(gpio uint8, mask uint32, pullDown bool, antiBounceMicros uint32) bool {
	return c.Send(c.sys.IRQHandlerID, MessageType(gpio), mask, PackSubscription(pullDown, antiBounceMicros))
}

// SetSystemState requests a system-wide state transition.
func (c *Context) SetSystemState(st State) Result {
	c.Send(c.sys.TaskManagerID, MsgSetSystemState, uint32(st), 0)
	return OK
}

// SetTimer registers a new software timer and returns the sequence number
// the timer service assigned it. The entry is built here and handed to
// SoftwareTimer by reference, the same ownership-transfer pattern LogNotify
// uses for its text payload.
func (c *Context) SetTimer(timerID uint8, repeating bool, intervalMsec uint32) (uint32, bool) {
	seq := c.sys.nextTimerSeq()
	entry := &TimerEntry{
		Task:           c.id,
		TimerID:        timerID,
		Repeating:      repeating,
		IntervalMsec:   intervalMsec,
		NextFireMicros: c.Now() + uint64(intervalMsec)*1000,
		SeqNr:          seq,
	}
	handle := registerTimerEntry(entry)
	if !c.Send(c.sys.SoftwareTimerID, MsgSetTimer, handle, 0) {
		releaseTimerEntry(handle)
		return 0, false
	}
	return seq, true
}

// CancelTimer cancels every timer this task registered under timerID.
func (c *Context) CancelTimer(timerID uint8) bool {
	return c.Send(c.sys.SoftwareTimerID, MsgCancelTimer, uint32(timerID), 0)
}

// CancelTimerBySequence cancels the single timer entry with the given
// sequence number, regardless of which task owns it.
func (c *Context) CancelTimerBySequence(seq uint32) bool {
	return c.Send(c.sys.SoftwareTimerID, MsgCancelTimerBySeqNr, seq, 0)
}

// SetVirtualTimer and VirtualTimerExpired compute and check a deadline
// locally, without registering anything with SoftwareTimer - useful for a
// task polling its own condition within a single run.
func (c *Context) SetVirtualTimer(usec uint64) uint64 { return c.Now() + usec }

func (c *Context) VirtualTimerExpired(deadline uint64) bool { return c.Now() > deadline }

// LogNotify and LogError hand a formatted line to the event log. The text
// (a Go string kept alive by the runtime rather than a malloc'd buffer) is
// owned by the recipient once accepted.
func (c *Context) logEvent(kind MessageType, text string) bool {
	ref := registerLogPayload(text)
	msg := Message{
		SenderHost:      c.sys.hostID,
		SenderTask:      c.id,
		RecipientHost:   c.sys.hostID,
		RecipientTask:   c.sys.EventLoggerID,
		Type:            kind,
		Primary:         ref,
		TimestampMicros: c.sys.Now(),
	}
	if !c.sys.outbound[c.core].TrySend(msg) {
		releaseLogPayload(ref)
		return false
	}
	return true
}

// LogNotify sends a notification-level log entry.
func (c *Context) LogNotify(format string, args ...any) bool {
	return c.logEvent(MsgLogNotify, fmt.Sprintf(format, args...))
}

// LogError sends an error-level log entry.
func (c *Context) LogError(format string, args ...any) bool {
	return c.logEvent(MsgLogError, fmt.Sprintf(format, args...))
}
