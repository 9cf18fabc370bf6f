package tester

import (
	"strings"

	"github.com/sarchlab/avrtester/mcu"
)

// byteLink reads and writes the byte queues of one serial peripheral.
type byteLink struct {
	d     driver
	read  func(sim mcu.Simulator) (byte, bool)
	write func(sim mcu.Simulator, b byte)
}

func (l byteLink) tryReadByte() (b byte, ok bool) {
	l.d.withSim(func(sim mcu.Simulator) {
		b, ok = l.read(sim)
	})

	return b, ok
}

func (l byteLink) readByte() byte {
	for {
		if b, ok := l.tryReadByte(); ok {
			return b
		}

		l.d.step()
	}
}

func (l byteLink) readN(n int) []byte {
	bytes := make([]byte, n)
	for i := range bytes {
		bytes[i] = l.readByte()
	}

	return bytes
}

func (l byteLink) readAll() []byte {
	var bytes []byte

	for {
		b, ok := l.tryReadByte()
		if !ok {
			return bytes
		}

		bytes = append(bytes, b)
	}
}

func (l byteLink) writeBytes(bytes []byte) {
	l.d.withSim(func(sim mcu.Simulator) {
		for _, b := range bytes {
			l.write(sim, b)
		}
	})
}

// UART is a serial port.
type UART struct {
	d  driver
	id byte
}

func (u *UART) link() byteLink {
	return byteLink{
		d: u.d,
		read: func(sim mcu.Simulator) (byte, bool) {
			return sim.ReadUART(u.id)
		},
		write: func(sim mcu.Simulator, b byte) {
			sim.WriteUART(u.id, b)
		},
	}
}

// TryReadByte pops a byte the firmware sent, if there is one.
func (u *UART) TryReadByte() (byte, bool) {
	return u.link().tryReadByte()
}

// WaitForByte waits until the firmware sends a byte and returns it.
func (u *UART) WaitForByte() byte {
	return u.link().readByte()
}

// Read waits for n bytes.
func (u *UART) Read(n int) []byte {
	return u.link().readN(n)
}

// ReadAll drains the bytes the firmware has sent so far.
func (u *UART) ReadAll() []byte {
	return u.link().readAll()
}

// ReadString drains the bytes the firmware has sent so far. Invalid UTF-8 is
// replaced.
func (u *UART) ReadString() string {
	return strings.ToValidUTF8(string(u.ReadAll()), "�")
}

// Write queues bytes for the firmware.
func (u *UART) Write(bytes []byte) {
	u.link().writeBytes(bytes)
}

// WriteString queues a string for the firmware.
func (u *UART) WriteString(s string) {
	u.Write([]byte(s))
}

// SPI is a serial peripheral interface.
type SPI struct {
	d  driver
	id uint8
}

func (s *SPI) link() byteLink {
	return byteLink{
		d: s.d,
		read: func(sim mcu.Simulator) (byte, bool) {
			return sim.ReadSPI(s.id)
		},
		write: func(sim mcu.Simulator, b byte) {
			sim.WriteSPI(s.id, b)
		},
	}
}

// TryReadByte pops a byte the firmware sent, if there is one.
func (s *SPI) TryReadByte() (byte, bool) {
	return s.link().tryReadByte()
}

// WaitForByte waits until the firmware sends a byte and returns it.
func (s *SPI) WaitForByte() byte {
	return s.link().readByte()
}

// Read waits for n bytes.
func (s *SPI) Read(n int) []byte {
	return s.link().readN(n)
}

// ReadAll drains the bytes the firmware has sent so far.
func (s *SPI) ReadAll() []byte {
	return s.link().readAll()
}

// Write queues bytes for the firmware.
func (s *SPI) Write(bytes []byte) {
	s.link().writeBytes(bytes)
}
