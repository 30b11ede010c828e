package main

import "github.com/zjrosen/clilm/cmd"

func main() {
	cmd.Execute()
}
