package main

import "viswords-api/internal/cli"

func main() {
	cli.Execute()
}
