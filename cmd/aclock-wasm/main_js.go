//go:build js && wasm

// Command aclock-wasm exports newClock() to the hosting page. Build with
// GOOS=js GOARCH=wasm.
package main

import (
	"os"

	"github.com/coreman2200/funtimes-aclock/internal/display/browser"
	"github.com/coreman2200/funtimes-aclock/internal/logging"
)

func main() {
	log, err := logging.New("info", "console", os.Stdout)
	if err != nil {
		panic(err)
	}
	browser.Export(log)
	select {}
}
