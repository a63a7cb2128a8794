package main

import "github.com/karulmca/ScurmBoard/internal/cli"

func main() {
	cli.Execute()
}
