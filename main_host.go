//go:build !tinygo

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"

	"tism/hal"
	"tism/internal/buildinfo"
	"tism/kernel"
	"tism/tasks"
)

func main() {
	startupDelay := flag.Duration("startup-delay", 1*time.Second, "Delay before the first task wake-up.")
	blinkMs := flag.Uint("blink-ms", 500, "Blinker interval in milliseconds.")
	buttonGPIO := flag.Uint("button-gpio", 1, "GPIO index the button demo task subscribes to.")
	antiBounceUs := flag.Uint("anti-bounce-us", 20000, "Anti-bounce window for the button demo task, in microseconds.")
	flag.Parse()

	fmt.Fprintf(os.Stdout, "tism %s starting (host)\n", buildinfo.Short())

	h := hal.New()
	if err := run(h, *startupDelay, uint32(*blinkMs), uint8(*buttonGPIO), uint32(*antiBounceUs)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(h hal.HAL, startupDelay time.Duration, blinkMs uint32, buttonGPIO uint8, antiBounceUs uint32) error {
	cfg := kernel.DefaultConfig()
	cfg.StartupDelay = startupDelay

	sys := kernel.NewSystem(cfg, h.Time())

	led := h.GPIO().Pin(0)
	if err := led.Configure(hal.GPIOModeOutput, hal.GPIOPullNone); err != nil {
		return fmt.Errorf("configure LED pin: %w", err)
	}
	sys.SetSystemReadyFunc(func(ready bool) {
		if ready {
			h.LED().High()
		} else {
			h.LED().Low()
		}
	})
	wireGPIOHooks(sys, h)

	if _, err := sys.Register("Blinker", kernel.PriorityNormal, tasks.NewBlinker(led, blinkMs)); err != nil {
		return err
	}
	if _, err := sys.Register("Button", kernel.PriorityNormal, tasks.NewButton(buttonGPIO, antiBounceUs)); err != nil {
		return err
	}
	if _, err := sys.Register("Heartbeat", kernel.PriorityLow, tasks.NewHeartbeat(2_000_000)); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var g errgroup.Group
	g.Go(func() error { return runCore(sys, 0) })
	g.Go(func() error { return runCore(sys, 1) })
	g.Go(func() error {
		<-ctx.Done()
		sys.Stop()
		return nil
	})

	return g.Wait()
}

// wireGPIOHooks arms the host's simulated GPIO pins on behalf of the
// interrupt demux: configureGPIO sets direction and pull on first
// subscription, setGPIOInterruptMask (re)arms the pin's edge/level
// callback, which forwards straight into System.PushIRQEvent.
func wireGPIOHooks(sys *kernel.System, h hal.HAL) {
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
}

func runCore(sys *kernel.System, coreID int) error {
	if r := sys.RunCore(coreID); r != kernel.OK {
		return fmt.Errorf("core %d: %w", coreID, r)
	}
	return nil
}
