package kernel

// postmanTask routes messages between tasks: it drains its own inbound
// mailbox (answering Ping directly, before touching anything else), then
// drains both per-core outbound queues into recipients' inbound mailboxes,
// then wakes every task other than TaskManager that received something by
// writing straight into
// TaskManager's inbound mailbox - not through Send/outbound, which
// TaskManager would not see again until a later drainage.
//
// Postman puts itself to sleep directly rather than through TaskManager to
// avoid a circular dependency (TaskManager itself is one of the tasks
// Postman might need to wake).
func postmanTask(ctx *Context) Result {
	view := ctx.View()
	switch view.State {
	case StateInit:
		// Nothing to initialize; the received-this-run tracker below is
		// built fresh on every RUN invocation.
	case StateRun:
		max := ctx.sys.cfg.MaxMessagesPerRun
		count := 0
		for count < max {
			msg, ok := ctx.Recv()
			if !ok {
				break
			}
			if msg.Type == MsgPing {
				ctx.Send(msg.SenderTask, MsgEcho, msg.Primary, 0)
			}
			count++
		}

		received := make([]bool, ctx.sys.NumberOfTasks())
		for core := 0; core < len(ctx.sys.outbound); core++ {
			count = 0
			for count < max {
				msg, ok := ctx.sys.outbound[core].TryRecv()
				if !ok {
					break
				}
				if !ctx.sys.isValidTaskID(msg.RecipientTask) {
					count++
					continue
				}
				target := ctx.sys.task(msg.RecipientTask)
				if target.inbound.TrySend(msg) {
					if msg.RecipientTask != ctx.sys.TaskManagerID {
						received[msg.RecipientTask] = true
					}
				}
				count++
			}
		}

		for id, got := range received {
			if got {
				ctx.sys.task(ctx.sys.TaskManagerID).inbound.TrySend(Message{
					SenderHost:      ctx.sys.hostID,
					SenderTask:      ctx.id,
					RecipientHost:   ctx.sys.hostID,
					RecipientTask:   ctx.sys.TaskManagerID,
					Type:            MsgSetTaskSleep,
					Primary:         0,
					Secondary:       uint32(id),
					TimestampMicros: ctx.sys.Now(),
				})
			}
		}

		ctx.sys.task(ctx.id).setSleeping(true)
	case StateStop:
		ctx.sys.task(ctx.id).setState(StateDown)
	}
	return OK
}
