package main

import "github.com/aaronromeo/trashreaper/internal/cli"

func main() {
	cli.Execute()
}
