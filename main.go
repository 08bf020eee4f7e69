package main

import "github.com/example/grevocab/internal/cmd"

func main() {
	cmd.Execute()
}
