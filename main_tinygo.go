//go:build tinygo && baremetal

package main

import (
	"time"

	"tism/hal"
	"tism/internal/buildinfo"
	"tism/kernel"
	"tism/tasks"
)

const (
	blinkMs        = 500
	buttonGPIO     = 1
	antiBounceUs   = 20000
	startupDelay   = 1 * time.Second
	heartbeatUsecs = 2_000_000
)

func main() {
	h := hal.New()
	h.Logger().WriteLineString("tism " + buildinfo.Short() + " starting")

	cfg := kernel.DefaultConfig()
	cfg.StartupDelay = startupDelay

	sys := kernel.NewSystem(cfg, h.Time())

	led := h.GPIO().Pin(0)
	led.Configure(hal.GPIOModeOutput, hal.GPIOPullNone)
	sys.SetSystemReadyFunc(func(ready bool) {
		if ready {
			h.LED().High()
		} else {
			h.LED().Low()
		}
	})

	sys.SetGPIOHooks(
		func(gpio int, pullDown bool) {
			pin := h.GPIO().Pin(gpio)
			if pin == nil {
				return
			}
			pull := hal.GPIOPullUp
			if pullDown {
				pull = hal.GPIOPullDown
			}
			pin.Configure(hal.GPIOModeInput, pull)
		},
		func(gpio int, mask uint32) {
			pin := h.GPIO().Pin(gpio)
			if pin == nil {
				return
			}
			if mask == 0 {
				pin.SetInterrupt(0, nil)
				return
			}
			pin.SetInterrupt(hal.GPIOEvent(mask), func(events hal.GPIOEvent) {
				sys.PushIRQEvent(uint8(gpio), uint32(events))
			})
		},
	)

	sys.Register("Blinker", kernel.PriorityNormal, tasks.NewBlinker(led, blinkMs))
	sys.Register("Button", kernel.PriorityNormal, tasks.NewButton(buttonGPIO, antiBounceUs))
	sys.Register("Heartbeat", kernel.PriorityLow, tasks.NewHeartbeat(heartbeatUsecs))

	// RP2350 core 1 runs the descending half of the scheduler; core 0 (this
	// goroutine) runs Init/Stop and the ascending half. TinyGo maps one
	// goroutine per hardware core only when started via the core1 package's
	// boot trampoline, wired in the board-specific runtime glue.
	go sys.RunCore(1)
	sys.RunCore(0)
}
