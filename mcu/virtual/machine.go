// Package virtual provides a deterministic, in-memory microcontroller that
// satisfies mcu.Simulator.
//
// The machine has no instruction set. Every Step runs a Program once; the
// program plays the part of the firmware, reading and driving pins and byte
// queues through the Machine, and reports how many cycles the step took.
package virtual

import (
	"fmt"
	"log"

	"github.com/sarchlab/avrtester/mcu"
	"github.com/sarchlab/avrtester/timing"
)

const (
	numPins        = 8
	numADCChannels = 16
)

type byteQueue struct {
	bytes []byte
}

func (q *byteQueue) push(b byte) {
	q.bytes = append(q.bytes, b)
}

func (q *byteQueue) pop() (byte, bool) {
	if len(q.bytes) == 0 {
		return 0, false
	}

	b := q.bytes[0]
	q.bytes = q.bytes[1:]

	return b, true
}

// link is a bidirectional byte channel between the firmware and the outside.
type link struct {
	toFirmware   byteQueue
	fromFirmware byteQueue
}

// Machine is a virtual microcontroller.
type Machine struct {
	freq    timing.Freq
	program Program

	steps  uint64
	cycles uint64

	ports map[byte]*uint8
	adc   [numADCChannels]uint32
	uarts map[byte]*link
	spis  map[uint8]*link
	twis  map[uint8]*twiPort
}

type twiPort struct {
	slave mcu.TWISlave
}

// New creates a machine clocked at freq that executes program on every step.
// A nil program idles for one cycle per step.
func New(freq timing.Freq, program Program) *Machine {
	if err := freq.Validate(); err != nil {
		log.Panic(err)
	}

	if program == nil {
		program = Idle(1)
	}

	m := &Machine{
		freq:    freq,
		program: program,
		ports:   make(map[byte]*uint8),
		uarts:   make(map[byte]*link),
		spis:    make(map[uint8]*link),
		twis:    make(map[uint8]*twiPort),
	}

	for _, p := range []byte("ABCD") {
		m.ports[p] = new(uint8)
	}

	for _, id := range []byte("01") {
		m.uarts[id] = &link{}
	}

	m.spis[0] = &link{}
	m.twis[0] = &twiPort{}

	return m
}

// Freq returns the clock the machine runs at.
func (m *Machine) Freq() timing.Freq {
	return m.freq
}

// Step runs the program once. A step always takes at least one cycle.
func (m *Machine) Step() mcu.StepOutcome {
	cycles, state := m.program.Execute(m)
	if cycles == 0 {
		cycles = 1
	}

	m.steps++
	m.cycles += cycles

	return mcu.StepOutcome{
		State:   state,
		Elapsed: timing.NewDuration(m.freq, cycles),
	}
}

// Steps returns how many steps the machine has executed.
func (m *Machine) Steps() uint64 {
	return m.steps
}

// Cycles returns how many cycles the machine has executed.
func (m *Machine) Cycles() uint64 {
	return m.cycles
}

// DigitalPin reports whether the pin is high.
func (m *Machine) DigitalPin(port byte, pin uint8) bool {
	return *m.port(port)&pinMask(pin) != 0
}

// SetDigitalPin drives the pin from the outside.
func (m *Machine) SetDigitalPin(port byte, pin uint8, high bool) {
	m.Drive(port, pin, high)
}

// Drive sets the level of a pin. Programs use it to model firmware output.
func (m *Machine) Drive(port byte, pin uint8, high bool) {
	reg := m.port(port)
	if high {
		*reg |= pinMask(pin)
	} else {
		*reg &^= pinMask(pin)
	}
}

// SetAnalogPin sets the voltage seen by an ADC channel.
func (m *Machine) SetAnalogPin(pin uint8, millivolts uint32) {
	if int(pin) >= numADCChannels {
		log.Panicf("virtual MCU doesn't have ADC%d", pin)
	}

	m.adc[pin] = millivolts
}

// AnalogMillivolts returns the voltage last injected into an ADC channel.
func (m *Machine) AnalogMillivolts(pin uint8) uint32 {
	if int(pin) >= numADCChannels {
		log.Panicf("virtual MCU doesn't have ADC%d", pin)
	}

	return m.adc[pin]
}

// ReadUART pops a byte the firmware transmitted.
func (m *Machine) ReadUART(id byte) (byte, bool) {
	return m.uart(id).fromFirmware.pop()
}

// WriteUART queues a byte for the firmware.
func (m *Machine) WriteUART(id byte, b byte) {
	m.uart(id).toFirmware.push(b)
}

// TransmitUART is the firmware side of ReadUART.
func (m *Machine) TransmitUART(id byte, b byte) {
	m.uart(id).fromFirmware.push(b)
}

// ReceiveUART is the firmware side of WriteUART.
func (m *Machine) ReceiveUART(id byte) (byte, bool) {
	return m.uart(id).toFirmware.pop()
}

// ReadSPI pops a byte the firmware transmitted.
func (m *Machine) ReadSPI(id uint8) (byte, bool) {
	return m.spi(id).fromFirmware.pop()
}

// WriteSPI queues a byte for the firmware.
func (m *Machine) WriteSPI(id uint8, b byte) {
	m.spi(id).toFirmware.push(b)
}

// TransmitSPI is the firmware side of ReadSPI.
func (m *Machine) TransmitSPI(id uint8, b byte) {
	m.spi(id).fromFirmware.push(b)
}

// ReceiveSPI is the firmware side of WriteSPI.
func (m *Machine) ReceiveSPI(id uint8) (byte, bool) {
	return m.spi(id).toFirmware.pop()
}

// TWISlave returns the device attached to a TWI.
func (m *Machine) TWISlave(id uint8) mcu.TWISlave {
	return m.twi(id).slave
}

// SetTWISlave attaches the device that answers on a TWI.
func (m *Machine) SetTWISlave(id uint8, slave mcu.TWISlave) {
	m.twi(id).slave = slave
}

// TransmitTWI is the firmware acting as bus master: it sends packet and
// returns the answer of the attached device, if any.
func (m *Machine) TransmitTWI(id uint8, packet mcu.TWIPacket) (mcu.TWIPacket, bool) {
	p := m.twi(id)
	if p.slave == nil {
		return mcu.TWIPacket{}, false
	}

	return p.slave.Recv(packet)
}

func (m *Machine) port(name byte) *uint8 {
	reg, ok := m.ports[name]
	if !ok {
		log.Panicf("virtual MCU doesn't have PORT%c", name)
	}

	return reg
}

func (m *Machine) uart(id byte) *link {
	l, ok := m.uarts[id]
	if !ok {
		log.Panicf("virtual MCU doesn't have UART%c", id)
	}

	return l
}

func (m *Machine) spi(id uint8) *link {
	l, ok := m.spis[id]
	if !ok {
		log.Panicf("virtual MCU doesn't have SPI%d", id)
	}

	return l
}

func (m *Machine) twi(id uint8) *twiPort {
	p, ok := m.twis[id]
	if !ok {
		log.Panicf("virtual MCU doesn't have TWI%d", id)
	}

	return p
}

func pinMask(pin uint8) uint8 {
	if pin >= numPins {
		panic(fmt.Sprintf("pin %d out of range", pin))
	}

	return 1 << pin
}

var _ mcu.Simulator = (*Machine)(nil)
