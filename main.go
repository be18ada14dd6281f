package main

import "github.com/mihaisavezi/chatrelay/cmd"

func main() {
	cmd.Execute()
}
