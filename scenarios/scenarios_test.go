package scenarios

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/avrtester/mcu"
	"github.com/sarchlab/avrtester/mcu/virtual"
	"github.com/sarchlab/avrtester/tester"
	"github.com/sarchlab/avrtester/timing"
)

func testerFor(s Scenario) *tester.Tester {
	return tester.MakeBuilder().Build(s.Machine(0))
}

var _ = Describe("Registry", func() {
	It("should list scenarios by name", func() {
		var names []string
		for _, s := range All() {
			names = append(names, s.Name)
		}

		Expect(names).To(Equal([]string{
			"rot13", "shift-register", "spi-catcher", "twi-ram", "watchdog",
		}))
	})

	It("should refuse unknown scenarios", func() {
		_, err := Find("blink")

		Expect(err).To(MatchError(ContainSubstring("blink")))
	})

	It("should refuse duplicates", func() {
		s, err := Find("watchdog")
		Expect(err).ToNot(HaveOccurred())

		Expect(func() { register(s) }).To(Panic())
	})
})

var _ = Describe("Scenarios", func() {
	DescribeTable("should pass on their own firmware",
		func(name string) {
			s, err := Find(name)
			Expect(err).ToNot(HaveOccurred())

			Expect(s.Run(testerFor(s))).To(Succeed())
		},
		Entry("watchdog", "watchdog"),
		Entry("shift register", "shift-register"),
		Entry("SPI catcher", "spi-catcher"),
		Entry("rot13", "rot13"),
		Entry("TWI RAM", "twi-ram"),
	)

	It("should run at any clock", func() {
		s, err := Find("shift-register")
		Expect(err).ToNot(HaveOccurred())

		t := tester.MakeBuilder().Build(s.Machine(1 * timing.MHz))

		Expect(s.Run(t)).To(Succeed())
	})

	It("should report what went wrong", func() {
		s, err := Find("watchdog")
		Expect(err).ToNot(HaveOccurred())

		t := testerFor(s)
		check := s.Setup(t)
		t.RunForCycles(12)

		err = check()
		Expect(err).To(MatchError(ErrUnexpectedResult))
		Expect(err.Error()).To(ContainSubstring("PB0 toggles: got [5 10]"))
	})
})

var _ = Describe("Watchdog", func() {
	It("should leave the pins where the toggles put them", func() {
		s, _ := Find("watchdog")
		t := testerFor(s)

		Expect(s.Run(t)).To(Succeed())

		t.Pins().PB(0).AssertLow()
		t.Pins().PB(1).AssertHigh()
	})
})

var _ = Describe("Shift register", func() {
	It("should stop decoding once removed", func() {
		s, _ := Find("shift-register")
		t := testerFor(s)

		var numbers []byte

		reader := t.Components().AddNamed("reader",
			ShiftRegisterReader(&numbers))

		for len(numbers) == 0 {
			t.Run()
		}

		reader.Remove()
		t.RunForCycles(s.Cycles)

		Expect(numbers).To(Equal([]byte{0xCA}))
		Expect(t.Components().Len()).To(BeZero())
	})

	It("should send any value", func() {
		t := tester.MakeBuilder().Build(
			virtual.New(16*timing.MHz, ShiftRegisterFirmware(0x01020380)))

		var numbers []byte

		t.Components().Add(ShiftRegisterReader(&numbers))
		t.RunForCycles(300)

		Expect(numbers).To(Equal([]byte{0x01, 0x02, 0x03, 0x80}))
	})
})

var _ = Describe("Rot13", func() {
	DescribeTable("should rotate letters only",
		func(in, out byte) {
			Expect(Rot13(in)).To(Equal(out))
		},
		Entry("lower", byte('a'), byte('n')),
		Entry("wrap", byte('z'), byte('m')),
		Entry("upper", byte('N'), byte('A')),
		Entry("digit", byte('7'), byte('7')),
		Entry("punctuation", byte('!'), byte('!')),
	)

	It("should answer from the test goroutine too", func() {
		s, _ := Find("rot13")
		t := testerFor(s)
		uart := t.UART('0')

		Expect(string(uart.Read(len(Rot13Greeting)))).To(Equal("Ready!"))

		uart.Write([]byte{3})
		uart.WriteString("HAL")

		Expect(string(uart.Read(3))).To(Equal("UNY"))

		uart.Write([]byte{0, 2})
		uart.WriteString("ab")

		Expect(string(uart.Read(2))).To(Equal("no"))
	})
})

var _ = Describe("TWI RAM", func() {
	var (
		s Scenario
		t *tester.Tester
	)

	BeforeEach(func() {
		var err error
		s, err = Find("twi-ram")
		Expect(err).ToNot(HaveOccurred())

		t = testerFor(s)
		DeferCleanup(t.Close)
	})

	It("should crash the firmware when nothing answers", func() {
		err := tester.Catch(func() { t.RunForCycles(s.Cycles) })

		Expect(err).To(MatchError(tester.ErrUnexpectedState))
		Expect(t.Steps()).To(Equal(uint64(1)))
	})

	It("should let a later slave answer what earlier ones ignore", func() {
		var seen []mcu.TWIPacket

		t.TWI(0).AttachSlaveFunc(func(p mcu.TWIPacket) (mcu.TWIPacket, bool) {
			seen = append(seen, p)
			return mcu.TWIPacket{}, false
		})
		t.TWI(0).AttachSlave(&TWIRAM{})

		t.RunForCycles(s.Cycles)

		Expect(seen).To(HaveLen(21))
		Expect(seen[0].IsStart()).To(BeTrue())
		Expect(seen[0].Addr).To(Equal(uint8(TWIRAMAddr << 1)))
		Expect(t.UART('0').ReadAll()).To(Equal([]byte{0x40}))
	})

	It("should stop answering once detached", func() {
		ram := &TWIRAM{}
		id := t.TWI(0).AttachSlave(ram)

		t.RunForCycles(40)
		t.TWI(0).DetachSlave(id)

		err := tester.Catch(func() { t.RunForCycles(s.Cycles) })

		Expect(err).To(MatchError(tester.ErrUnexpectedState))
		Expect(ram.Cells[0]).To(Equal(byte(0xCA)))
	})

	It("should refuse cells it does not have", func() {
		ram := &TWIRAM{}
		w := mcu.TWIPacket{Msg: mcu.TWIMsgWrite, Addr: TWIRAMAddr << 1}

		w.Data = 40
		_, ok := ram.Recv(w)
		Expect(ok).To(BeTrue())

		w.Data = 1
		_, ok = ram.Recv(w)
		Expect(ok).To(BeFalse())

		_, ok = ram.Recv(mcu.TWIPacket{Msg: mcu.TWIMsgStart, Addr: 0x10})
		Expect(ok).To(BeFalse())
	})
})
