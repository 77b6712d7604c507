package main

import (
	"os"

	"github.com/abhisek/sanlang/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
