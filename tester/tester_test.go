package tester

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/avrtester/components"
	"github.com/sarchlab/avrtester/hooking"
	"github.com/sarchlab/avrtester/mcu"
	"github.com/sarchlab/avrtester/mcu/virtual"
	"github.com/sarchlab/avrtester/timing"
)

const freq = 16 * timing.MHz

func cycles(n uint64) timing.Duration {
	return timing.NewDuration(freq, n)
}

// raisesAt drives a pin high from the given step on.
func raisesAt(port byte, pin uint8, step uint64) virtual.Program {
	return virtual.ProgramFunc(func(m *virtual.Machine) (uint64, mcu.State) {
		if m.Steps()+1 >= step {
			m.Drive(port, pin, true)
		}

		return 1, mcu.Running
	})
}

// togglesEvery flips a pin every n steps.
func togglesEvery(port byte, pin uint8, n uint64) virtual.Program {
	return virtual.ProgramFunc(func(m *virtual.Machine) (uint64, mcu.State) {
		if (m.Steps()+1)%n == 0 {
			m.Drive(port, pin, !m.DigitalPin(port, pin))
		}

		return 1, mcu.Running
	})
}

// echoPlusOne answers every UART0 byte with its successor.
var echoPlusOne = virtual.ProgramFunc(
	func(m *virtual.Machine) (uint64, mcu.State) {
		if b, ok := m.ReceiveUART('0'); ok {
			m.TransmitUART('0', b+1)
		}

		return 1, mcu.Running
	})

var _ = Describe("Builder", func() {
	It("should take the clock from the simulator", func() {
		t := MakeBuilder().Build(virtual.New(freq, nil))

		Expect(t.Freq()).To(Equal(freq))
		Expect(t.Now()).To(Equal(timing.Zero(freq)))

		_, limited := t.Remaining()
		Expect(limited).To(BeFalse())
	})

	It("should refuse a simulator with a different clock", func() {
		Expect(func() {
			MakeBuilder().WithClock(8 * timing.MHz).Build(virtual.New(freq, nil))
		}).To(Panic())
	})

	It("should refuse a missing simulator", func() {
		Expect(func() { MakeBuilder().Build(nil) }).To(Panic())
	})

	It("should refuse an empty timeout", func() {
		Expect(func() {
			MakeBuilder().WithTimeoutOfMillis(0).Build(virtual.New(freq, nil))
		}).To(Panic())
	})

	It("should convert the timeout to the simulator's clock", func() {
		t := MakeBuilder().
			WithTimeoutOfMicros(3).
			Build(virtual.New(freq, nil))

		remaining, limited := t.Remaining()
		Expect(limited).To(BeTrue())
		Expect(remaining).To(Equal(cycles(48)))
	})

	It("should forget a removed timeout", func() {
		t := MakeBuilder().
			WithTimeout(cycles(5)).
			WithoutTimeout().
			Build(virtual.New(freq, nil))

		_, limited := t.Remaining()
		Expect(limited).To(BeFalse())
	})
})

var _ = Describe("Tester", func() {
	It("should step the simulator", func() {
		m := virtual.New(freq, virtual.Cycles(2, 3))
		t := MakeBuilder().Build(m)

		Expect(t.Run()).To(Equal(cycles(2)))
		Expect(t.Run()).To(Equal(cycles(3)))
		Expect(t.Steps()).To(Equal(uint64(2)))
		Expect(t.Now()).To(Equal(cycles(5)))
		Expect(t.Simulator()).To(BeIdenticalTo(m))
	})

	It("should run for at least the requested time", func() {
		t := MakeBuilder().Build(virtual.New(freq, virtual.Idle(5)))

		Expect(t.RunForMicros(1)).To(Equal(cycles(20)))
		Expect(t.RunForCycles(0)).To(Equal(cycles(0)))
		Expect(t.Steps()).To(Equal(uint64(4)))
	})

	It("should run for milliseconds and seconds", func() {
		t := MakeBuilder().Build(virtual.New(timing.KHz, nil))

		Expect(t.RunForMillis(3).AsCycles()).To(Equal(uint64(3)))
		Expect(t.RunForSecs(1).AsCycles()).To(Equal(uint64(1000)))
	})

	Context("when the MCU leaves the running state", func() {
		It("should fail on a crash", func() {
			t := MakeBuilder().Build(
				virtual.New(freq, virtual.Halt(virtual.Idle(1), 3, mcu.Crashed)))

			err := Catch(func() { t.RunForCycles(10) })

			Expect(err).To(MatchError(ErrUnexpectedState))

			var stateErr *StateError
			Expect(errors.As(err, &stateErr)).To(BeTrue())
			Expect(stateErr.State).To(Equal(mcu.Crashed))
			Expect(stateErr.Step).To(Equal(uint64(3)))
		})

		It("should fail on sleep by default", func() {
			t := MakeBuilder().Build(
				virtual.New(freq, virtual.Halt(virtual.Idle(1), 1, mcu.Sleeping)))

			Expect(Catch(func() { t.Run() })).To(MatchError(ErrUnexpectedState))
		})

		It("should accept sleep when allowed", func() {
			t := MakeBuilder().
				WithSleepAllowed().
				Build(virtual.New(freq, virtual.Halt(virtual.Idle(1), 1, mcu.Sleeping)))

			Expect(Catch(func() { t.RunForCycles(5) })).To(Succeed())
			Expect(t.Now()).To(Equal(cycles(5)))
		})
	})

	Context("with a timeout", func() {
		It("should abort once the budget is used up", func() {
			t := MakeBuilder().
				WithTimeoutOfMicros(1).
				Build(virtual.New(freq, nil))

			err := Catch(func() { t.RunForMicros(10) })

			Expect(err).To(MatchError(ErrTimedOut))

			var timeoutErr *TimeoutError
			Expect(errors.As(err, &timeoutErr)).To(BeTrue())
			Expect(timeoutErr.Steps).To(Equal(uint64(16)))
			Expect(timeoutErr.Budget).To(Equal(cycles(16)))
		})

		It("should stop a wait that never ends", func() {
			t := MakeBuilder().
				WithTimeoutOfMillis(1).
				Build(virtual.New(freq, nil))

			Expect(Catch(func() { t.Pins().PD(0).PulseIn() })).
				To(MatchError(ErrTimedOut))
		})
	})

	It("should let other panics through Catch", func() {
		Expect(func() {
			_ = Catch(func() { panic("boom") })
		}).To(PanicWith("boom"))
	})

	It("should invoke hooks around each step", func() {
		t := MakeBuilder().Build(virtual.New(freq, virtual.Idle(2)))

		var events []StepEvent
		t.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
			if ctx.Pos == HookPosAfterStep {
				events = append(events, ctx.Item.(StepEvent))
			}
		}))

		t.Run()
		t.Run()

		Expect(events).To(HaveLen(2))
		Expect(events[1].Step).To(Equal(uint64(2)))
		Expect(events[1].Outcome.Elapsed).To(Equal(cycles(2)))
		Expect(events[1].Now).To(Equal(cycles(4)))
	})

	It("should keep the simulator away from tasks", func() {
		t := MakeBuilder().Build(virtual.New(freq, nil))

		t.Components().Add(func(rt *components.Runtime) {
			t.Pins().PB(0).IsHigh()
		})

		Expect(func() { t.Run() }).To(Panic())
		Expect(t.Simulator()).NotTo(BeNil())
	})
})

var _ = Describe("Pins", func() {
	It("should read and drive digital pins", func() {
		t := MakeBuilder().Build(virtual.New(freq, nil))
		pin := t.Pins().PB(1)

		Expect(pin.Name()).To(Equal("PB1"))
		Expect(pin.IsLow()).To(BeTrue())

		pin.SetHigh()
		Expect(pin.IsHigh()).To(BeTrue())
		pin.AssertHigh()

		pin.Toggle()
		Expect(pin.IsLow()).To(BeTrue())
		Expect(func() { pin.AssertHigh() }).To(PanicWith("PB1 is not high"))

		pin.Set(true)
		Expect(func() { pin.Assert(false) }).To(PanicWith("PB1 is not low"))
	})

	It("should name pins of every port", func() {
		t := MakeBuilder().Build(virtual.New(freq, nil))

		Expect(t.Pins().PC(6).Name()).To(Equal("PC6"))
		Expect(t.Pins().PD(4).Name()).To(Equal("PD4"))
		Expect(t.Pins().Digital('A', 0).Name()).To(Equal("PA0"))
	})

	It("should wait for a level", func() {
		t := MakeBuilder().Build(virtual.New(freq, raisesAt('B', 0, 5)))
		pin := t.Pins().PB(0)

		Expect(pin.WaitWhileLow()).To(Equal(cycles(5)))
		Expect(pin.WaitWhileLow()).To(Equal(cycles(0)))
		Expect(t.Pins().PB(1).WaitWhileHigh()).To(Equal(cycles(0)))
	})

	It("should give up waiting after the timeout", func() {
		t := MakeBuilder().Build(virtual.New(freq, raisesAt('B', 0, 5)))
		pin := t.Pins().PB(0)

		elapsed, ok := pin.WaitWhileLowTimeout(cycles(3))
		Expect(ok).To(BeFalse())
		Expect(elapsed).To(Equal(cycles(3)))

		elapsed, ok = pin.WaitWhileLowTimeout(cycles(10))
		Expect(ok).To(BeTrue())
		Expect(elapsed).To(Equal(cycles(2)))

		elapsed, ok = pin.WaitWhileHighTimeout(cycles(4))
		Expect(ok).To(BeFalse())
		Expect(elapsed).To(Equal(cycles(4)))
	})

	It("should measure pulses", func() {
		t := MakeBuilder().Build(virtual.New(freq, togglesEvery('D', 0, 4)))
		pin := t.Pins().PD(0)

		Expect(pin.PulseIn()).To(Equal(cycles(4)))
		Expect(pin.IsHigh()).To(BeTrue())
		Expect(pin.PulseIn()).To(Equal(cycles(4)))
		Expect(pin.IsLow()).To(BeTrue())
	})

	It("should inject analog voltages", func() {
		mockCtrl := gomock.NewController(GinkgoT())
		defer mockCtrl.Finish()

		simMock := NewMockSimulator(mockCtrl)
		simMock.EXPECT().Freq().Return(freq).AnyTimes()
		simMock.EXPECT().SetAnalogPin(uint8(2), uint32(1_500))

		t := MakeBuilder().Build(simMock)

		t.Pins().Analog(2).SetMillivolts(1_500)
	})
})

var _ = Describe("Serial", func() {
	It("should exchange bytes over UART", func() {
		t := MakeBuilder().Build(virtual.New(freq, echoPlusOne))
		uart := t.UART('0')

		uart.WriteString("abc")

		Expect(uart.WaitForByte()).To(Equal(byte('b')))
		Expect(uart.Read(2)).To(Equal([]byte("cd")))

		_, ok := uart.TryReadByte()
		Expect(ok).To(BeFalse())

		uart.Write([]byte("HAL"))
		t.RunForCycles(3)
		Expect(uart.ReadString()).To(Equal("IBM"))
		Expect(uart.ReadAll()).To(BeEmpty())
	})

	It("should exchange bytes over SPI", func() {
		mockCtrl := gomock.NewController(GinkgoT())
		defer mockCtrl.Finish()

		simMock := NewMockSimulator(mockCtrl)
		simMock.EXPECT().Freq().Return(freq).AnyTimes()

		gomock.InOrder(
			simMock.EXPECT().ReadSPI(uint8(0)).Return(byte(0xCA), true),
			simMock.EXPECT().ReadSPI(uint8(0)).Return(byte(0xFE), true),
			simMock.EXPECT().ReadSPI(uint8(0)).Return(byte(0), false),
		)
		simMock.EXPECT().WriteSPI(uint8(0), byte(0x01))
		simMock.EXPECT().WriteSPI(uint8(0), byte(0x02))

		t := MakeBuilder().Build(simMock)
		spi := t.SPI(0)

		Expect(spi.ReadAll()).To(Equal([]byte{0xCA, 0xFE}))
		spi.Write([]byte{0x01, 0x02})
	})
})

var _ = Describe("Async", func() {
	It("should wait on pins from a task", func() {
		t := MakeBuilder().Build(virtual.New(freq, raisesAt('B', 0, 5)))

		var elapsed timing.Duration
		var doneAt uint64

		t.Components().Add(func(rt *components.Runtime) {
			elapsed = Async(rt).Pins().PB(0).WaitWhileLow()
			doneAt = t.Steps()
		})

		t.RunForCycles(10)

		Expect(doneAt).To(Equal(uint64(5)))
		Expect(elapsed).To(Equal(cycles(4)))
		Expect(t.Components().Len()).To(Equal(0))
	})

	It("should drive pins from a task", func() {
		m := virtual.New(freq, nil)
		t := MakeBuilder().Build(m)

		t.Components().Add(func(rt *components.Runtime) {
			avr := Async(rt)

			for {
				avr.Pins().PC(3).Toggle()
				avr.RunForCycles(3)
			}
		})

		var levels []bool
		for i := 0; i < 7; i++ {
			t.Run()
			levels = append(levels, m.DigitalPin('C', 3))
		}

		Expect(levels).To(Equal([]bool{
			true, true, false, false, false, true, true,
		}))
	})

	It("should wait as long with RunFor as with Sleep", func() {
		t := MakeBuilder().Build(virtual.New(freq, virtual.Cycles(2, 1)))

		var sleptAt, ranAt uint64
		var ran timing.Duration

		t.Components().Add(func(rt *components.Runtime) {
			Async(rt).Sleep(cycles(4))
			sleptAt = t.Steps()
		})
		t.Components().Add(func(rt *components.Runtime) {
			ran = Async(rt).RunForCycles(4)
			ranAt = t.Steps()
		})

		t.RunForCycles(10)

		Expect(sleptAt).To(Equal(uint64(3)))
		Expect(ranAt).To(Equal(sleptAt))
		Expect(ran).To(Equal(cycles(5)))
	})

	It("should read serial bytes from a task", func() {
		feed := virtual.ProgramFunc(func(m *virtual.Machine) (uint64, mcu.State) {
			if m.Steps() < 3 {
				m.TransmitSPI(0, byte(m.Steps()))
			}

			return 1, mcu.Running
		})

		t := MakeBuilder().Build(virtual.New(freq, feed))

		var got []byte
		t.Components().Add(func(rt *components.Runtime) {
			avr := Async(rt)

			for {
				got = append(got, avr.SPI(0).ReadAll()...)
				avr.Run()
			}
		})

		t.RunForCycles(5)

		Expect(got).To(Equal([]byte{0, 1, 2}))
	})

	It("should await UART bytes from a task", func() {
		t := MakeBuilder().Build(virtual.New(freq, echoPlusOne))

		var got []byte
		t.Components().Add(func(rt *components.Runtime) {
			uart := Async(rt).UART('0')
			uart.WriteString("xy")
			got = append(got, uart.WaitForByte(), uart.WaitForByte())
		})

		t.RunForCycles(6)

		Expect(string(got)).To(Equal("yz"))
	})

	It("should sleep from a task", func() {
		t := MakeBuilder().Build(virtual.New(freq, nil))

		var wokeAt uint64
		t.Components().Add(func(rt *components.Runtime) {
			avr := Async(rt)
			avr.Sleep(timing.NewDuration(avr.Freq(), 7))
			wokeAt = t.Steps()
		})

		t.RunForCycles(10)

		Expect(wokeAt).To(Equal(uint64(7)))
	})
})

// pingsTWI sends a write packet carrying the step number on TWI0 from the
// given step on, and keeps the data of every answer.
func pingsTWI(from uint64, answers *[]byte) virtual.Program {
	return virtual.ProgramFunc(func(m *virtual.Machine) (uint64, mcu.State) {
		step := m.Steps() + 1
		if step >= from {
			rsp, ok := m.TransmitTWI(0, mcu.TWIPacket{
				Msg:  mcu.TWIMsgWrite,
				Addr: 0x20,
				Data: byte(step),
			})
			if ok {
				*answers = append(*answers, rsp.Data)
			}
		}

		return 1, mcu.Running
	})
}

func answerWith(offset byte) func(mcu.TWIPacket) (mcu.TWIPacket, bool) {
	return func(p mcu.TWIPacket) (mcu.TWIPacket, bool) {
		return mcu.TWIPacket{Msg: mcu.TWIMsgAck, Data: p.Data + offset}, true
	}
}

var _ = Describe("TWI", func() {
	It("should ask the slaves in attachment order", func() {
		var answers []byte
		t := MakeBuilder().Build(virtual.New(freq, pingsTWI(1, &answers)))

		var seen []byte
		t.TWI(0).AttachSlaveFunc(func(p mcu.TWIPacket) (mcu.TWIPacket, bool) {
			seen = append(seen, p.Data)
			return mcu.TWIPacket{}, p.Data == 2
		})
		second := t.TWI(0).AttachSlaveFunc(answerWith(100))

		t.Run()
		t.Run()
		t.TWI(0).DetachSlave(second)
		t.TWI(0).DetachSlave(second)
		t.Run()

		Expect(seen).To(Equal([]byte{1, 2, 3}))
		Expect(answers).To(Equal([]byte{101, 0}))
	})

	It("should keep a slave set on the simulator first", func() {
		var answers []byte
		m := virtual.New(freq, pingsTWI(1, &answers))
		m.SetTWISlave(0, mcu.TWISlaveFunc(answerWith(10)))

		t := MakeBuilder().Build(m)
		t.TWI(0).AttachSlaveFunc(answerWith(20))

		t.Run()

		Expect(answers).To(Equal([]byte{11}))
	})

	It("should attach and detach slaves from a task", func() {
		var answers []byte
		t := MakeBuilder().Build(virtual.New(freq, pingsTWI(3, &answers)))

		t.Components().Add(func(rt *components.Runtime) {
			avr := Async(rt)

			id := avr.TWI(0).AttachSlaveFunc(answerWith(100))
			avr.RunForCycles(3)
			avr.TWI(0).DetachSlave(id)
		})

		t.RunForCycles(8)

		Expect(answers).To(Equal([]byte{103}))
	})
})

var _ = Describe("Closing", func() {
	It("should unwind the tasks still scheduled", func() {
		t := MakeBuilder().Build(virtual.New(freq, nil))

		cleanedUp := false
		t.Components().Add(func(rt *components.Runtime) {
			defer func() { cleanedUp = true }()

			for {
				Async(rt).Run()
			}
		})

		var reasons []components.EvictionReason
		t.Components().AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
			if ctx.Pos == components.HookPosTaskEvicted {
				reasons = append(reasons, ctx.Detail.(components.EvictionReason))
			}
		}))

		t.RunForCycles(3)
		t.Close()

		Expect(cleanedUp).To(BeTrue())
		Expect(reasons).To(Equal([]components.EvictionReason{
			components.EvictionUnfinished,
		}))
		Expect(t.Components().Len()).To(BeZero())
		Expect(t.Run()).To(Equal(cycles(1)))
	})
})
