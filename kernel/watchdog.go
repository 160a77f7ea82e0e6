package kernel

// watchdogState tracks one outstanding Ping per task: when it was sent,
// which counter value it carried, and whether a reply is still pending.
type watchdogState struct {
	pingCounter   uint32
	nextRound     uint64
	sentAt        []uint64
	expected      []uint32
	awaitingReply []bool
}

func (w *watchdogState) reset(n int) {
	w.pingCounter = 0
	w.nextRound = 0
	w.sentAt = make([]uint64, n)
	w.expected = make([]uint32, n)
	w.awaitingReply = make([]bool, n)
}

// watchdogTask pings every non-sleeping task once per CheckInterval and
// complains to the event log when a reply takes longer than TaskTimeout to
// arrive, or never arrives at all before the next round starts. It never
// halts the system on its own - only the log hears about it.
func watchdogTask(ctx *Context) Result {
	view := ctx.View()
	w := &ctx.sys.watchdog

	switch view.State {
	case StateInit:
		w.reset(ctx.sys.cfg.MaxTasks)
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
			case MsgTest:
			case MsgEcho:
				sender := int(msg.SenderTask)
				if sender < len(w.awaitingReply) && w.awaitingReply[sender] && msg.Primary == w.expected[sender] {
					delay := ctx.Now() - w.sentAt[sender]
					w.awaitingReply[sender] = false
					if delay > uint64(ctx.sys.cfg.WatchdogTaskTimeout.Microseconds()) {
						ctx.LogError("Watchdog: ECHO response from task %d exceeded maximum delay (%d us), took %d us.", sender, ctx.sys.cfg.WatchdogTaskTimeout.Microseconds(), delay)
					}
				} else {
					ctx.LogError("Watchdog: unexpected or stale ECHO response received from task %d.", msg.SenderTask)
				}
			}
			count++
		}

		if ctx.Now() >= w.nextRound {
			for id := 0; id < ctx.sys.NumberOfTasks(); id++ {
				t := ctx.sys.task(TaskID(id))
				if t == nil || TaskID(id) == ctx.id || t.isSleeping() {
					continue
				}
				if w.awaitingReply[id] {
					ctx.LogError("Watchdog: no ECHO response received from task %d before the next check round.", id)
				}
				ctx.Send(TaskID(id), MsgPing, w.pingCounter, 0)
				w.sentAt[id] = ctx.Now()
				w.expected[id] = w.pingCounter
				w.awaitingReply[id] = true
				w.pingCounter++
				if w.pingCounter >= ctx.sys.cfg.WatchdogMaxCounter {
					w.pingCounter = 0
				}
			}
			w.nextRound = ctx.Now() + uint64(ctx.sys.cfg.WatchdogCheckInterval.Microseconds())
		}
	case StateStop:
		ctx.SetMyTaskAttribute(MsgSetTaskState, uint32(StateDown))
	}
	return OK
}
