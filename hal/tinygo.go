//go:build tinygo && baremetal

package hal

import (
	"machine"
)

type tinyGoHAL struct {
	logger *uartLogger
	led    *pinLED
	gpio   GPIO
	t      *tinyGoTime
}

// New returns a Pico 2 (RP2350) HAL implementation.
//
// UART: UART0 on GP0 (TX) / GP1 (RX), 115200 8N1. GP2..GP8 are exposed as
// general-purpose interrupt-capable pins for the interrupt demux.
func New() HAL {
	uart := machine.UART0
	uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})

	ledPin := machine.LED
	ledPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	led := &pinLED{pin: ledPin}

	gpioPins := []machine.Pin{
		machine.GP2, machine.GP3, machine.GP4, machine.GP5,
		machine.GP6, machine.GP7, machine.GP8,
	}
	pins := []GPIOPin{newLEDPin("LED", led)}
	for i, mp := range gpioPins {
		pins = append(pins, newMachinePin(gpioPinName(i), mp))
	}

	return &tinyGoHAL{
		logger: &uartLogger{uart: uart},
		led:    led,
		gpio:   newVirtualGPIO(pins),
		t:      newTinyGoTime(),
	}
}

func gpioPinName(i int) string {
	names := [...]string{"GPIO1", "GPIO2", "GPIO3", "GPIO4", "GPIO5", "GPIO6", "GPIO7"}
	if i < 0 || i >= len(names) {
		return "GPIO?"
	}
	return names[i]
}

func (h *tinyGoHAL) Logger() Logger { return h.logger }
func (h *tinyGoHAL) LED() LED       { return h.led }
func (h *tinyGoHAL) GPIO() GPIO     { return h.gpio }
func (h *tinyGoHAL) Time() Time     { return h.t }
