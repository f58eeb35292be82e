package main

import (
	"os"

	"github.com/voxlingua/voxlingua/internal/voxservice"
)

func main() {
	if err := voxservice.Run(); err != nil {
		os.Exit(1)
	}
}
