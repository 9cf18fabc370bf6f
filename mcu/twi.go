package mcu

// TWIPacket is one event on a TWI (I2C) bus, as seen by a slave. Addr is the
// 8-bit address byte, so it carries the read/write bit.
type TWIPacket struct {
	Msg  uint8
	Addr uint8
	Data uint8
}

// TWI message flags.
const (
	TWIMsgStart uint8 = 1 << iota
	TWIMsgStop
	TWIMsgAddr
	TWIMsgAck
	TWIMsgWrite
	TWIMsgRead
)

// IsStart reports whether the packet opens a transaction.
func (p TWIPacket) IsStart() bool {
	return p.Msg&TWIMsgStart != 0
}

// IsStop reports whether the packet closes a transaction.
func (p TWIPacket) IsStop() bool {
	return p.Msg&TWIMsgStop != 0
}

// IsAddr reports whether the packet carries an address.
func (p TWIPacket) IsAddr() bool {
	return p.Msg&TWIMsgAddr != 0
}

// IsAck reports whether the packet acknowledges.
func (p TWIPacket) IsAck() bool {
	return p.Msg&TWIMsgAck != 0
}

// IsWrite reports whether the master writes Data.
func (p TWIPacket) IsWrite() bool {
	return p.Msg&TWIMsgWrite != 0
}

// IsRead reports whether the master asks for a byte.
func (p TWIPacket) IsRead() bool {
	return p.Msg&TWIMsgRead != 0
}

// RespondAck returns the acknowledgement of p.
func (p TWIPacket) RespondAck() TWIPacket {
	return TWIPacket{Msg: TWIMsgAck, Addr: p.Addr, Data: 1}
}

// RespondData returns the answer to a read request.
func (p TWIPacket) RespondData(data uint8) TWIPacket {
	return TWIPacket{Msg: TWIMsgRead, Addr: p.Addr, Data: data}
}

// A TWISlave is a device on a TWI bus. Recv is called for every packet the
// firmware sends; the second result is false when the slave ignores it.
type TWISlave interface {
	Recv(packet TWIPacket) (TWIPacket, bool)
}

// TWISlaveFunc turns a function into a TWISlave.
type TWISlaveFunc func(packet TWIPacket) (TWIPacket, bool)

// Recv calls f.
func (f TWISlaveFunc) Recv(packet TWIPacket) (TWIPacket, bool) {
	return f(packet)
}
