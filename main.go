package main

import (
	"os"

	"github.com/delarsify/sanjeevani/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
