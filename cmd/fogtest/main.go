// Copyright © 2026 Fogtools

package main

import (
	"github.com/fogtools/fogtest/cmd/fogtest/cmd"
)

func main() {
	cmd.Execute()
}
