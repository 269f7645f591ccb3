package main

import "github.com/habiliai/aurora/cmd/aurora/cmd"

func main() {
	cmd.Execute()
}
