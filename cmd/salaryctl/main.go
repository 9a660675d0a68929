// Command salaryctl computes and inspects salary reports from the terminal.
package main

import "salaryreport/internal/cmd"

func main() {
	cmd.Execute()
}
