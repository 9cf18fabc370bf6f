package scenarios

import (
	"github.com/sarchlab/avrtester/components"
	"github.com/sarchlab/avrtester/mcu"
	"github.com/sarchlab/avrtester/mcu/virtual"
	"github.com/sarchlab/avrtester/tester"
	"github.com/sarchlab/avrtester/timing"
)

const (
	// TWIRAMAddr is the bus address of the RAM the twi-ram firmware uses.
	TWIRAMAddr = 123

	// TWIRAMSumCell is the cell that reads back the sum of the whole RAM.
	TWIRAMSumCell = 255
)

var twiMagic = []byte{0xCA, 0xFE, 0xBA, 0xBE}

func init() {
	register(Scenario{
		Name: "twi-ram",
		Description: "firmware stores 0xCAFEBABE into a RAM on TWI0 and " +
			"sends the sum the RAM reports back over UART0",
		Clock:    16 * timing.MHz,
		Cycles:   250,
		Firmware: TWIFirmware,
		Setup:    setupTWIRAM,
	})
}

// TWIFirmware writes 0xCAFEBABE into cells 0 to 3 of the device at
// TWIRAMAddr, reads TWIRAMSumCell and transmits the byte it got over UART0.
// Every packet takes a step of ten cycles. The MCU crashes when the device
// does not answer a packet as expected.
func TWIFirmware() virtual.Program {
	const (
		writeAddr = TWIRAMAddr << 1
		readAddr  = TWIRAMAddr<<1 | 1
	)

	var (
		script []func(m *virtual.Machine) bool
		result byte
	)

	acked := func(p mcu.TWIPacket) {
		script = append(script, func(m *virtual.Machine) bool {
			rsp, ok := m.TransmitTWI(0, p)
			return ok && rsp.IsAck()
		})
	}

	start := func(addr uint8) {
		acked(mcu.TWIPacket{Msg: mcu.TWIMsgStart | mcu.TWIMsgAddr, Addr: addr})
	}

	stop := func(addr uint8) {
		acked(mcu.TWIPacket{Msg: mcu.TWIMsgStop, Addr: addr})
	}

	write := func(b byte) {
		acked(mcu.TWIPacket{Msg: mcu.TWIMsgWrite, Addr: writeAddr, Data: b})
	}

	for i, b := range twiMagic {
		start(writeAddr)
		write(byte(i))
		write(b)
		stop(writeAddr)
	}

	start(writeAddr)
	write(TWIRAMSumCell)
	start(readAddr)
	script = append(script, func(m *virtual.Machine) bool {
		rsp, ok := m.TransmitTWI(0,
			mcu.TWIPacket{Msg: mcu.TWIMsgRead, Addr: readAddr})
		result = rsp.Data

		return ok && rsp.IsRead()
	})
	stop(readAddr)
	script = append(script, func(m *virtual.Machine) bool {
		m.TransmitUART('0', result)
		return true
	})

	next := 0

	return virtual.ProgramFunc(func(m *virtual.Machine) (uint64, mcu.State) {
		if next == len(script) {
			return 1, mcu.Running
		}

		if !script[next](m) {
			return 10, mcu.Crashed
		}

		next++

		return 10, mcu.Running
	})
}

// TWIRAM is a 32-cell RAM answering at TWIRAMAddr. The first byte of a write
// selects a cell and the next one stores into it. A read returns the
// selected cell, or the sum of all cells for TWIRAMSumCell.
type TWIRAM struct {
	Cells [32]byte

	cell     int
	selected bool
}

// Recv implements mcu.TWISlave.
func (r *TWIRAM) Recv(p mcu.TWIPacket) (mcu.TWIPacket, bool) {
	if p.Addr>>1 != TWIRAMAddr {
		return mcu.TWIPacket{}, false
	}

	switch {
	case p.IsStart(), p.IsStop():
		return p.RespondAck(), true
	case p.IsWrite():
		return r.write(p)
	case p.IsRead():
		return r.read(p)
	}

	return mcu.TWIPacket{}, false
}

func (r *TWIRAM) write(p mcu.TWIPacket) (mcu.TWIPacket, bool) {
	if !r.selected {
		r.cell = int(p.Data)
		r.selected = true

		return p.RespondAck(), true
	}

	r.selected = false

	if r.cell >= len(r.Cells) {
		return mcu.TWIPacket{}, false
	}

	r.Cells[r.cell] = p.Data

	return p.RespondAck(), true
}

func (r *TWIRAM) read(p mcu.TWIPacket) (mcu.TWIPacket, bool) {
	if !r.selected {
		return mcu.TWIPacket{}, false
	}

	r.selected = false

	switch {
	case r.cell == TWIRAMSumCell:
		var sum byte
		for _, c := range r.Cells {
			sum += c
		}

		return p.RespondData(sum), true
	case r.cell < len(r.Cells):
		return p.RespondData(r.Cells[r.cell]), true
	}

	return mcu.TWIPacket{}, false
}

// TWISumReader returns a task that waits for the byte the twi-ram firmware
// sends over UART0.
func TWISumReader(sum *byte) components.Task {
	return func(rt *components.Runtime) {
		*sum = tester.Async(rt).UART('0').WaitForByte()
	}
}

func setupTWIRAM(t *tester.Tester) Check {
	ram := &TWIRAM{}
	t.TWI(0).AttachSlave(ram)

	var sum byte
	t.Components().AddNamed("twi-sum-reader", TWISumReader(&sum))

	return func() error {
		var want byte
		for _, b := range twiMagic {
			want += b
		}

		if sum != want {
			return mismatch("sum read back", sum, want)
		}

		if got := ram.Cells[:len(twiMagic)]; string(got) != string(twiMagic) {
			return mismatch("RAM cells", got, twiMagic)
		}

		return nil
	}
}
