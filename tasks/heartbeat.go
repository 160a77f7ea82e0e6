package tasks

import "tism/kernel"

// NewHeartbeat returns a task that logs a notice every intervalMicros,
// timed with Context's virtual-timer helpers instead of a registered
// software timer - useful for a task that just wants to poll its own
// deadline without round-tripping through SoftwareTimer's mailbox.
func NewHeartbeat(intervalMicros uint64) kernel.TaskFunc {
	var deadline uint64
	var beats uint64
	return func(ctx *kernel.Context) kernel.Result {
		view := ctx.View()
		switch view.State {
		case kernel.StateInit:
			beats = 0
			deadline = ctx.SetVirtualTimer(intervalMicros)
		case kernel.StateRun:
			if ctx.VirtualTimerExpired(deadline) {
				beats++
				ctx.LogNotify("heartbeat: beat #%d, system state %d", beats, ctx.SystemState())
				deadline = ctx.SetVirtualTimer(intervalMicros)
			}
		case kernel.StateStop:
			ctx.LogNotify("heartbeat: stopping after %d beats", beats)
			ctx.SetMyTaskAttribute(kernel.MsgSetTaskState, uint32(kernel.StateDown))
		}
		return kernel.OK
	}
}
