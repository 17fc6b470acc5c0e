package main

import (
	"os"
	exit "os"
)

func main() {
	defer cleanup()

	if len(os.Args) > 1 {
		os.Exit(2) // want "direct call to os.Exit in main.main is forbidden"
	}

	exit.Exit(1) // want "direct call to os.Exit in main.main is forbidden"

	func() {
		os.Exit(3) // want "direct call to os.Exit in main.main is forbidden"
	}()
}

func cleanup() {
	os.Exit(0)
}

type service struct{}

func (service) main() {
	os.Exit(0)
}
