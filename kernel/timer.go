package kernel

import "sync"

// TimerEntry is one registered software timer: a task/timer id pair, its
// repeat behavior and interval, and the deadline (and sequence number) the
// timer service assigned it.
type TimerEntry struct {
	Task           TaskID
	TimerID        uint8
	Repeating      bool
	IntervalMsec   uint32
	NextFireMicros uint64
	SeqNr          uint32
}

// pendingTimerEntries hands a newly constructed TimerEntry from the calling
// task to SoftwareTimer across a message, the same ownership-transfer
// pattern as the event log's text payloads: the sender builds the value,
// registers a handle, and the recipient claims and owns it.
var pendingTimerEntries = struct {
	mu   sync.Mutex
	next uint32
	m    map[uint32]*TimerEntry
}{m: make(map[uint32]*TimerEntry)}

func registerTimerEntry(e *TimerEntry) uint32 {
	pendingTimerEntries.mu.Lock()
	defer pendingTimerEntries.mu.Unlock()
	pendingTimerEntries.next++
	h := pendingTimerEntries.next
	pendingTimerEntries.m[h] = e
	return h
}

func releaseTimerEntry(h uint32) {
	pendingTimerEntries.mu.Lock()
	defer pendingTimerEntries.mu.Unlock()
	delete(pendingTimerEntries.m, h)
}

func takeTimerEntry(h uint32) (*TimerEntry, bool) {
	pendingTimerEntries.mu.Lock()
	defer pendingTimerEntries.mu.Unlock()
	e, ok := pendingTimerEntries.m[h]
	delete(pendingTimerEntries.m, h)
	return e, ok
}

// removeTimerEntries drops every entry for the given task/timer id pair,
// filtering the slice in place (order preserved) rather than splicing a
// linked list.
func removeTimerEntries(entries []*TimerEntry, task TaskID, timerID uint8) []*TimerEntry {
	out := entries[:0]
	for _, e := range entries {
		if e.Task == task && e.TimerID == timerID {
			continue
		}
		out = append(out, e)
	}
	return out
}

func removeTimerEntryBySeq(entries []*TimerEntry, seq uint32) []*TimerEntry {
	out := entries[:0]
	for _, e := range entries {
		if e.SeqNr == seq {
			continue
		}
		out = append(out, e)
	}
	return out
}

// softwareTimerTask scans its flat collection of TimerEntry on every run,
// firing and (if repeating) rescheduling or (if one-shot) dropping whatever
// has passed its deadline, then sleeps until the soonest remaining deadline.
func softwareTimerTask(ctx *Context) Result {
	view := ctx.View()
	switch view.State {
	case StateInit:
		ctx.sys.timerEntries = nil
		ctx.SetMyTaskAttribute(MsgSetTaskSleep, 1)
	case StateRun:
		max := ctx.sys.cfg.MaxMessagesPerRun
		count := 0
		for count < max {
			msg, ok := ctx.Recv()
			if !ok {
				break
			}
			switch msg.Type {
			case MsgPing:
				ctx.Send(msg.SenderTask, MsgEcho, msg.Primary, 0)
			case MsgCancelTimer:
				if len(ctx.sys.timerEntries) == 0 {
					ctx.LogError("SoftwareTimer: cancellation received for timer %d from task %d but no timers registered, ignoring.", msg.Primary, msg.SenderTask)
				} else {
					ctx.sys.timerEntries = removeTimerEntries(ctx.sys.timerEntries, msg.SenderTask, uint8(msg.Primary))
				}
			case MsgCancelTimerBySeqNr:
				ctx.sys.timerEntries = removeTimerEntryBySeq(ctx.sys.timerEntries, msg.Primary)
			case MsgSetTimer:
				if entry, ok := takeTimerEntry(msg.Primary); ok {
					ctx.sys.timerEntries = append(ctx.sys.timerEntries, entry)
				}
			}
			count++
		}

		if len(ctx.sys.timerEntries) == 0 {
			ctx.SetMyTaskAttribute(MsgSetTaskSleep, 1)
			return OK
		}

		now := ctx.Now()
		var firstFire uint64 = ^uint64(0)
		live := ctx.sys.timerEntries[:0]
		for _, e := range ctx.sys.timerEntries {
			if e.NextFireMicros < now {
				ctx.Send(e.Task, MessageType(e.TimerID), e.SeqNr, 0)
				if e.Repeating {
					e.NextFireMicros += uint64(e.IntervalMsec) * 1000
					if e.NextFireMicros < firstFire {
						firstFire = e.NextFireMicros
					}
					live = append(live, e)
				}
				continue
			}
			if e.NextFireMicros < firstFire {
				firstFire = e.NextFireMicros
			}
			live = append(live, e)
		}
		ctx.sys.timerEntries = live

		if len(ctx.sys.timerEntries) > 0 {
			ctx.sys.task(ctx.id).setWakeUpMicros(firstFire)
		} else {
			ctx.SetMyTaskAttribute(MsgSetTaskSleep, 1)
		}
	case StateStop:
		ctx.SetMyTaskAttribute(MsgSetTaskState, uint32(StateDown))
	}
	return OK
}
