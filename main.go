package main

import "github.com/ridoystarlord/cteshape/cmd"

func main() {
	cmd.Execute()
}
