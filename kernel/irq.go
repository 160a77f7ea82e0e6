package kernel

// NumberOfGPIOPorts bounds the interrupt demux's per-GPIO subscription
// table. GPIO numbers double as MessageType values in the 0-28 range when
// addressed to IRQHandler, so this must cover every GPIO the host exposes.
const NumberOfGPIOPorts = 29

// irqSubscription is one task's registered interest in a GPIO's events.
type irqSubscription struct {
	task                    TaskID
	events                  uint32
	antiBounce              uint32
	lastSuccessfulInterrupt uint64
}

// irqGPIOState tracks a single GPIO's initialization and subscriber list.
type irqGPIOState struct {
	initialized bool
	pullDown    bool
	eventMask   uint32
	subs        []*irqSubscription
}

// irqHandlerTask is the interrupt demux: it turns raw GPIO events fed in by
// the platform callback into routed messages for every task subscribed to
// that GPIO, honoring each subscriber's own anti-bounce window.
//
// Subscription bookkeeping lives in a slice per GPIO rather than the
// original's linked list; Go has no use for hand-rolled list splicing here.
func irqHandlerTask(ctx *Context) Result {
	view := ctx.View()
	state := ctx.sys.irqState()

	switch view.State {
	case StateInit:
		for i := range state {
			state[i] = irqGPIOState{pullDown: true}
		}
		ctx.SetMyTaskAttribute(MsgSetTaskSleep, 1)
	case StateRun:
		max := ctx.sys.cfg.MaxMessagesPerRun

		count := 0
		for count < max {
			evt, ok := ctx.sys.irqInbound.TryRecv()
			if !ok {
				break
			}
			gpio := int(evt.Type)
			if gpio >= 0 && gpio < NumberOfGPIOPorts && state[gpio].initialized {
				for _, sub := range state[gpio].subs {
					if evt.Primary&sub.events == 0 {
						continue
					}
					if sub.antiBounce == 0 || evt.TimestampMicros > sub.lastSuccessfulInterrupt+uint64(sub.antiBounce) {
						pullDown := uint32(0)
						if state[gpio].pullDown {
							pullDown = 1
						}
						ctx.Send(sub.task, MessageType(gpio), evt.Primary, pullDown)
						sub.lastSuccessfulInterrupt = evt.TimestampMicros
					}
				}
			}
			count++
		}

		count = 0
		for count < max {
			msg, ok := ctx.Recv()
			if !ok {
				break
			}
			switch {
			case msg.Type == MsgPing:
				ctx.Send(msg.SenderTask, MsgEcho, msg.Primary, 0)
			case int(msg.Type) < NumberOfGPIOPorts:
				handleGPIOSubscription(ctx, state, msg)
			default:
				ctx.LogError("IRQHandler: invalid GPIO subscription (%d) requested by task %d, ignoring.", msg.Type, msg.SenderTask)
			}
			count++
		}

		ctx.SetMyTaskAttribute(MsgSetTaskSleep, 1)
	case StateStop:
		ctx.SetMyTaskAttribute(MsgSetTaskState, uint32(StateDown))
	}
	return OK
}

func handleGPIOSubscription(ctx *Context, state []irqGPIOState, msg Message) {
	gpio := int(msg.Type)
	pullDown, antiBounce := UnpackSubscription(msg.Secondary)

	if !state[gpio].initialized {
		if msg.Primary == IRQUnsubscribe {
			ctx.LogError("IRQHandler: unsubscribe request received from task %d for an uninitialized GPIO (%d); ignoring.", msg.SenderTask, gpio)
			return
		}
		ctx.sys.configureGPIO(gpio, pullDown)
		state[gpio].initialized = true
		state[gpio].pullDown = pullDown
		state[gpio].subs = []*irqSubscription{{
			task:       msg.SenderTask,
			events:     msg.Primary,
			antiBounce: antiBounce,
		}}
	} else {
		idx := -1
		for i, s := range state[gpio].subs {
			if s.task == msg.SenderTask {
				idx = i
				break
			}
		}
		switch {
		case idx >= 0 && msg.Primary == IRQUnsubscribe:
			state[gpio].subs = append(state[gpio].subs[:idx], state[gpio].subs[idx+1:]...)
		case idx >= 0:
			state[gpio].subs[idx].events = msg.Primary
		default:
			state[gpio].subs = append(state[gpio].subs, &irqSubscription{
				task:       msg.SenderTask,
				events:     msg.Primary,
				antiBounce: antiBounce,
			})
		}
	}

	mask := uint32(0)
	for _, s := range state[gpio].subs {
		mask |= s.events
	}
	state[gpio].eventMask = mask
	ctx.sys.setGPIOInterruptMask(gpio, mask)
}
