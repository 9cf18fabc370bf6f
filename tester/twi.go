package tester

import (
	"slices"

	"github.com/sarchlab/avrtester/mcu"
)

// TWISlaveID identifies a slave attached through TWI.AttachSlave.
type TWISlaveID uint32

type twiEntry struct {
	id    TWISlaveID
	slave mcu.TWISlave
}

// twiBus is the device the tester installs on a TWI. It offers every packet
// to the attached slaves in attachment order until one of them answers.
type twiBus struct {
	entries []twiEntry
	nextID  TWISlaveID
}

func (b *twiBus) Recv(packet mcu.TWIPacket) (mcu.TWIPacket, bool) {
	for _, e := range b.entries {
		if rsp, ok := e.slave.Recv(packet); ok {
			return rsp, true
		}
	}

	return mcu.TWIPacket{}, false
}

func (b *twiBus) attach(slave mcu.TWISlave) TWISlaveID {
	id := b.nextID
	b.nextID++
	b.entries = append(b.entries, twiEntry{id: id, slave: slave})

	return id
}

func (b *twiBus) detach(id TWISlaveID) {
	b.entries = slices.DeleteFunc(b.entries, func(e twiEntry) bool {
		return e.id == id
	})
}

// TWI gives access to a TWI (I2C) bus, on which the firmware is the master
// and the test provides the slaves.
type TWI struct {
	d  driver
	id uint8
}

// bus returns the tester's device on the TWI, installing it on first use. A
// slave that was set on the simulator directly stays first in line.
func (t *TWI) bus() *twiBus {
	var bus *twiBus

	t.d.withSim(func(sim mcu.Simulator) {
		current := sim.TWISlave(t.id)
		if b, ok := current.(*twiBus); ok {
			bus = b
			return
		}

		bus = &twiBus{}
		if current != nil {
			bus.attach(current)
		}

		sim.SetTWISlave(t.id, bus)
	})

	return bus
}

// AttachSlave adds a device to the bus. Devices see every packet, in the
// order they were attached, until one of them answers.
func (t *TWI) AttachSlave(slave mcu.TWISlave) TWISlaveID {
	return t.bus().attach(slave)
}

// AttachSlaveFunc is AttachSlave for a plain function.
func (t *TWI) AttachSlaveFunc(
	f func(packet mcu.TWIPacket) (mcu.TWIPacket, bool),
) TWISlaveID {
	return t.AttachSlave(mcu.TWISlaveFunc(f))
}

// DetachSlave removes a device from the bus. Unknown ids are ignored.
func (t *TWI) DetachSlave(id TWISlaveID) {
	t.bus().detach(id)
}
