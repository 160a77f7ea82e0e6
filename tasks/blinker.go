// Package tasks holds demo tasks that exercise the kernel end to end on
// both the host harness and real boards: a periodic LED blink driven by
// SoftwareTimer, a GPIO interrupt subscriber with an anti-bounce window,
// and a heartbeat that logs through the event log.
package tasks

import "tism/kernel"

// BlinkerTimerID is the per-task timer identifier Blinker registers with
// SoftwareTimer; it only needs the one, so any constant works.
const BlinkerTimerID uint8 = 1

// OutputPin is the sliver of hal.GPIOPin a blink loop needs. Any pin already
// Configure(GPIOModeOutput, ...)'d by the caller satisfies it.
type OutputPin interface {
	Write(level bool) error
}

// NewBlinker returns a task that toggles led once per intervalMsec using a
// repeating software timer, the same pattern the original's demo firmware
// uses for its own heartbeat LED.
func NewBlinker(led OutputPin, intervalMsec uint32) kernel.TaskFunc {
	on := false
	return func(ctx *kernel.Context) kernel.Result {
		view := ctx.View()
		switch view.State {
		case kernel.StateInit:
			led.Write(false)
			on = false
			ctx.SetTimer(BlinkerTimerID, true, intervalMsec)
			ctx.SetMyTaskAttribute(kernel.MsgSetTaskSleep, 1)
		case kernel.StateRun:
			for {
				msg, ok := ctx.Recv()
				if !ok {
					break
				}
				if msg.Type == kernel.MessageType(BlinkerTimerID) {
					on = !on
					led.Write(on)
				}
			}
			ctx.SetMyTaskAttribute(kernel.MsgSetTaskSleep, 1)
		case kernel.StateStop:
			ctx.CancelTimer(BlinkerTimerID)
			led.Write(false)
			ctx.SetMyTaskAttribute(kernel.MsgSetTaskState, uint32(kernel.StateDown))
		}
		return kernel.OK
	}
}
