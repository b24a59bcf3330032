package main

import "finboard/cmd/finctl/commands"

func main() {
	commands.Execute()
}
