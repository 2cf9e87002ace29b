package main

import (
	"github.com/livp123/laratail/cmd/laratail/commands"
)

func main() {
	commands.Execute()
}
