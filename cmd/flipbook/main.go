package main

import "github.com/tessro/flipbook/internal/cli"

func main() {
	cli.Execute()
}
