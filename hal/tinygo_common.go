//go:build tinygo && baremetal

package hal

import (
	"errors"
	"time"

	"machine"
)

type tinyGoTime struct {
	ch    chan uint64
	seq   uint64
	start time.Time
}

func newTinyGoTime() *tinyGoTime {
	t := &tinyGoTime{ch: make(chan uint64, 16), start: time.Now()}
	go func() {
		ticker := time.NewTicker(1 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			t.seq++
			select {
			case t.ch <- t.seq:
			default:
			}
		}
	}()
	return t
}

func (t *tinyGoTime) Ticks() <-chan uint64 { return t.ch }

func (t *tinyGoTime) NowMicros() uint64 {
	return uint64(time.Since(t.start).Microseconds())
}

type uartLogger struct {
	uart *machine.UART
}

func (l *uartLogger) WriteLineString(s string) {
	for i := 0; i < len(s); i++ {
		l.uart.WriteByte(s[i])
	}
	l.uart.WriteByte('\r')
	l.uart.WriteByte('\n')
}

func (l *uartLogger) WriteLineBytes(b []byte) {
	for i := 0; i < len(b); i++ {
		l.uart.WriteByte(b[i])
	}
	l.uart.WriteByte('\r')
	l.uart.WriteByte('\n')
}

type pinLED struct {
	pin machine.Pin
}

func (l *pinLED) High() { l.pin.High() }
func (l *pinLED) Low()  { l.pin.Low() }

// machinePin adapts a real machine.Pin to GPIOPin, including hardware
// interrupt delivery. Pull configuration is fixed at Configure time since
// the Pico SDK ties pull mode to pin mode rather than exposing it
// independently.
type machinePin struct {
	name string
	pin  machine.Pin
	caps GPIOCaps
	mode GPIOMode
}

func newMachinePin(name string, pin machine.Pin) *machinePin {
	return &machinePin{
		name: name,
		pin:  pin,
		caps: GPIOCapInput | GPIOCapOutput | GPIOCapPullUp | GPIOCapPullDown | GPIOCapInterrupt,
	}
}

func (p *machinePin) Name() string   { return p.name }
func (p *machinePin) Caps() GPIOCaps { return p.caps }

func (p *machinePin) Configure(mode GPIOMode, pull GPIOPull) error {
	cfg := machine.PinConfig{}
	switch {
	case mode == GPIOModeOutput:
		cfg.Mode = machine.PinOutput
	case mode == GPIOModeInput && pull == GPIOPullUp:
		cfg.Mode = machine.PinInputPullup
	case mode == GPIOModeInput && pull == GPIOPullDown:
		cfg.Mode = machine.PinInputPulldown
	case mode == GPIOModeInput:
		cfg.Mode = machine.PinInput
	default:
		return errors.New("gpio: invalid mode")
	}
	p.pin.Configure(cfg)
	p.mode = mode
	return nil
}

func (p *machinePin) Read() (bool, error) {
	return p.pin.Get(), nil
}

func (p *machinePin) Write(level bool) error {
	if p.mode != GPIOModeOutput {
		return errors.New("gpio: pin not in output mode")
	}
	p.pin.Set(level)
	return nil
}

func (p *machinePin) SetInterrupt(events GPIOEvent, callback GPIOCallback) error {
	if events == 0 || callback == nil {
		return p.pin.SetInterrupt(0, nil)
	}
	var change machine.PinChange
	if events&GPIOEventEdgeRise != 0 {
		change |= machine.PinRising
	}
	if events&GPIOEventEdgeFall != 0 {
		change |= machine.PinFalling
	}
	if change == 0 {
		return errors.New("gpio: interrupts support edges only on this platform")
	}
	return p.pin.SetInterrupt(change, func(machine.Pin) {
		fired := events & (GPIOEventEdgeRise | GPIOEventEdgeFall)
		callback(fired)
	})
}
