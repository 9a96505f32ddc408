package main

import "github.com/planbench/planbench/cmd"

func main() {
	cmd.Execute()
}
