// The main package for the bulkcrawl executable.
package main

import (
	"github.com/jmartens/bulkcrawl/cmd"
)

func main() {
	cmd.Execute()
}
