package main

import "github.com/mindchat/mindchat/cmd"

func main() {
	cmd.Execute()
}
