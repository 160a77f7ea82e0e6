package kernel

import (
	"fmt"
	"os"
	"sync"
)

// logPayloads holds text owned by a pending log message. The original C
// implementation stuffs a malloc'd char* into the message's payload word
// and frees it once EventLogger has printed it; a raw pointer does not
// survive being squeezed into a uint32 and would not be GC-safe if it did,
// so ownership transfer here is modeled as a handle into this registry
// instead.
var logPayloads = struct {
	mu   sync.Mutex
	next uint32
	m    map[uint32]string
}{m: make(map[uint32]string)}

func registerLogPayload(text string) uint32 {
	logPayloads.mu.Lock()
	defer logPayloads.mu.Unlock()
	logPayloads.next++
	h := logPayloads.next
	logPayloads.m[h] = text
	return h
}

func releaseLogPayload(h uint32) {
	logPayloads.mu.Lock()
	defer logPayloads.mu.Unlock()
	delete(logPayloads.m, h)
}

func takeLogPayload(h uint32) (string, bool) {
	logPayloads.mu.Lock()
	defer logPayloads.mu.Unlock()
	text, ok := logPayloads.m[h]
	delete(logPayloads.m, h)
	return text, ok
}

// eventLoggerTask is the one task in the system that writes to stdout and
// stderr. It only reacts to messages: Ping for liveness, and the two log
// levels, each routed to a different sink.
func eventLoggerTask(ctx *Context) Result {
	view := ctx.View()
	switch view.State {
	case StateInit:
		ctx.sys.task(ctx.id).inbound.Resize(ctx.sys.cfg.EventLogMailboxSlots)
		fmt.Fprintf(os.Stdout, "%d %s (TaskID %d): Logging started.\n", ctx.Now(), view.Name, view.ID)
		ctx.SetMyTaskAttribute(MsgSetTaskSleep, 1)
	case StateRun:
		count := 0
		max := ctx.sys.cfg.EventLogMailboxSlots
		for count < max {
			msg, ok := ctx.Recv()
			if !ok {
				break
			}
			if msg.SenderHost != ctx.sys.hostID {
				fmt.Fprintf(os.Stderr, "%d %s: message received from foreign host %d, ignoring.\n", ctx.Now(), view.Name, msg.SenderHost)
				count++
				continue
			}
			switch msg.Type {
			case MsgPing:
				ctx.Send(msg.SenderTask, MsgEcho, msg.Primary, 0)
			case MsgLogNotify:
				if text, ok := takeLogPayload(msg.Primary); ok {
					fmt.Fprintf(os.Stdout, "%d task %d: %s\n", msg.TimestampMicros, msg.SenderTask, text)
				}
			case MsgLogError:
				if text, ok := takeLogPayload(msg.Primary); ok {
					fmt.Fprintf(os.Stderr, "%d task %d ERROR: %s\n", msg.TimestampMicros, msg.SenderTask, text)
				}
			default:
				fmt.Fprintf(os.Stderr, "%d %s: unknown message type %d from task %d, ignoring.\n", ctx.Now(), view.Name, msg.Type, msg.SenderTask)
			}
			count++
		}
		ctx.SetMyTaskAttribute(MsgSetTaskSleep, 1)
	case StateStop:
		fmt.Fprintf(os.Stdout, "%d %s (TaskID %d): Logging stopped.\n", ctx.Now(), view.Name, view.ID)
		ctx.SetMyTaskAttribute(MsgSetTaskState, uint32(StateDown))
	}
	return OK
}
