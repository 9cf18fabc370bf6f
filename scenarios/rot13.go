package scenarios

import (
	"github.com/sarchlab/avrtester/components"
	"github.com/sarchlab/avrtester/mcu"
	"github.com/sarchlab/avrtester/mcu/virtual"
	"github.com/sarchlab/avrtester/tester"
	"github.com/sarchlab/avrtester/timing"
)

// Rot13Greeting is what the rot13 firmware sends when it boots.
const Rot13Greeting = "Ready!"

func init() {
	register(Scenario{
		Name: "rot13",
		Description: "firmware greets over UART0 and answers every " +
			"length-prefixed message with its rot13",
		Clock:    16 * timing.MHz,
		Cycles:   400,
		Firmware: Rot13Firmware,
		Setup:    setupRot13,
	})
}

// Rot13Firmware sends the greeting over UART0, then keeps reading a length
// byte followed by that many bytes and answers with the rot13 of the message.
// Sending a byte takes eight cycles, receiving one two, and idling one.
func Rot13Firmware() virtual.Program {
	out := []byte(Rot13Greeting)
	want := -1

	var msg []byte

	return virtual.ProgramFunc(func(m *virtual.Machine) (uint64, mcu.State) {
		if len(out) > 0 {
			m.TransmitUART('0', out[0])
			out = out[1:]

			return 8, mcu.Running
		}

		b, ok := m.ReceiveUART('0')
		if !ok {
			return 1, mcu.Running
		}

		if want < 0 {
			if b > 0 {
				want = int(b)
				msg = msg[:0]
			}

			return 2, mcu.Running
		}

		msg = append(msg, b)
		if len(msg) == want {
			for _, c := range msg {
				out = append(out, Rot13(c))
			}

			want = -1
		}

		return 2, mcu.Running
	})
}

// Rot13 rotates ASCII letters by 13 and leaves everything else alone.
func Rot13(c byte) byte {
	switch {
	case c >= 'a' && c <= 'z':
		return 'a' + (c-'a'+13)%26
	case c >= 'A' && c <= 'Z':
		return 'A' + (c-'A'+13)%26
	default:
		return c
	}
}

// Rot13Client returns a task that waits for the greeting, sends msg, and
// stores the greeting and the answer.
func Rot13Client(msg string, greeting, answer *string) components.Task {
	return func(rt *components.Runtime) {
		uart := tester.Async(rt).UART('0')

		*greeting = string(uart.Read(len(Rot13Greeting)))

		uart.Write([]byte{byte(len(msg))})
		uart.WriteString(msg)

		*answer = string(uart.Read(len(msg)))
	}
}

func setupRot13(t *tester.Tester) Check {
	var greeting, answer string

	t.Components().AddNamed("rot13-client",
		Rot13Client("Hello, World!", &greeting, &answer))

	return func() error {
		if greeting != Rot13Greeting {
			return mismatch("greeting", greeting, Rot13Greeting)
		}

		if want := "Uryyb, Jbeyq!"; answer != want {
			return mismatch("answer", answer, want)
		}

		return nil
	}
}
