package kernel

// taskManagerTask is the only task allowed to mutate another task's state,
// priority, sleep flag, wake-up deadline or debug level, and the only task
// allowed to change the system's own state. Every request reaching it has
// already passed Context.SetTaskAttribute's permission check; TaskManager
// itself performs no further validation, matching the original's comment
// that TaskManager trusts its caller.
//
// Message field mapping: Type = attribute to change, Primary = setting,
// Secondary = target task id (except SetSystemState, which has no target).
func taskManagerTask(ctx *Context) Result {
	view := ctx.View()
	switch view.State {
	case StateInit:
		ctx.sys.task(ctx.sys.TaskManagerID).setSleeping(true)
		ctx.sys.task(ctx.sys.PostmanID).setSleeping(true)
		ctx.sys.task(ctx.sys.IRQHandlerID).setSleeping(true)
	case StateRun:
		max := ctx.sys.cfg.MaxMessagesPerRun
		count := 0
		for count < max {
			msg, ok := ctx.Recv()
			if !ok {
				break
			}
			target := TaskID(msg.Secondary)
			switch msg.Type {
			case MsgPing:
				ctx.Send(msg.SenderTask, MsgEcho, msg.Primary, 0)
			case MsgSetTaskSleep:
				t := ctx.sys.task(target)
				if t == nil {
					break
				}
				if msg.Primary == 0 {
					t.wake(ctx.Now())
				} else {
					t.setSleeping(true)
				}
			case MsgSetTaskWakeUp:
				if t := ctx.sys.task(target); t != nil {
					t.setWakeUpMicros(ctx.Now() + uint64(msg.Primary))
				}
			case MsgSetSystemState:
				ctx.sys.setState(State(msg.Primary))
			case MsgSetTaskState:
				if t := ctx.sys.task(target); t != nil {
					t.setState(State(msg.Primary))
				}
			case MsgSetTaskPriority:
				if t := ctx.sys.task(target); t != nil {
					t.setPriority(Priority(msg.Primary))
				}
			case MsgWakeAllTasks:
				now := ctx.Now()
				for _, t := range ctx.sys.tasks {
					if t.isSleeping() {
						t.wake(now)
					}
				}
			case MsgDedicateToTask:
				dedicateTo := target
				if t := ctx.sys.task(dedicateTo); t != nil && !t.isSleeping() {
					for _, other := range ctx.sys.tasks {
						if other.id != dedicateTo && !ctx.sys.isSystemTask(other.id) {
							other.setSleeping(true)
						}
					}
				}
			case MsgSetTaskDebug:
				if t := ctx.sys.task(target); t != nil {
					t.setDebug(DebugLevel(msg.Primary))
				}
			}
			count++
		}
		ctx.sys.task(ctx.id).setSleeping(true)
	case StateStop:
		ctx.sys.task(ctx.id).setState(StateDown)
	}
	return OK
}
