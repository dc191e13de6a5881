// Command apbsim runs the self-checking verification of the register slave.
package main

import "github.com/sarchlab/apbverif/apbsim/cmd"

func main() {
	cmd.Execute()
}
