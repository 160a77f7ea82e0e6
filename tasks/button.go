package tasks

import "tism/kernel"

// ButtonEventMask is the rise/fall mask Button subscribes with; the exact
// bit assignment only has to agree between the platform's GPIO callback and
// this subscription, so any non-zero value the two sides share works.
const ButtonEventMask uint32 = 0x3

// NewButton returns a task that subscribes to gpio's edge events with the
// given anti-bounce window and logs every delivery it receives. gpio is the
// GPIO number as the platform wired it into System.PushIRQEvent, not a raw
// pin index.
func NewButton(gpio uint8, antiBounceMicros uint32) kernel.TaskFunc {
	presses := uint32(0)
	return func(ctx *kernel.Context) kernel.Result {
		view := ctx.View()
		switch view.State {
		case kernel.StateInit:
			presses = 0
			ctx.SubscribeGPIO(gpio, ButtonEventMask, true, antiBounceMicros)
			ctx.SetMyTaskAttribute(kernel.MsgSetTaskSleep, 1)
		case kernel.StateRun:
			for {
				msg, ok := ctx.Recv()
				if !ok {
					break
				}
				if msg.Type == kernel.MessageType(gpio) {
					presses++
					ctx.LogNotify("button: gpio %d fired (events=%#x), press #%d", gpio, msg.Primary, presses)
				}
			}
			ctx.SetMyTaskAttribute(kernel.MsgSetTaskSleep, 1)
		case kernel.StateStop:
			ctx.SubscribeGPIO(gpio, kernel.IRQUnsubscribe, true, 0)
			ctx.SetMyTaskAttribute(kernel.MsgSetTaskState, uint32(kernel.StateDown))
		}
		return kernel.OK
	}
}
