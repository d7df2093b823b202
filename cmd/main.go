package main

import (
	"os"

	"github.com/poliqa/poliqa/cmd/poliqa"
)

func main() {
	if err := poliqa.Execute(); err != nil {
		os.Exit(1)
	}
}
