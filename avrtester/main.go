// Command avrtester runs the bundled scenarios against the virtual MCU.
package main

import "github.com/sarchlab/avrtester/avrtester/cmd"

func main() {
	cmd.Execute()
}
