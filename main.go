package main

import "repochat/cmd"

func main() {
	cmd.Execute()
}
