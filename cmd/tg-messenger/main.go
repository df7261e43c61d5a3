package main

import "github.com/pfrederiksen/tg-messenger/internal/cli"

func main() {
	cli.Execute()
}
