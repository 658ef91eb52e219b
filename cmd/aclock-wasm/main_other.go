//go:build !(js && wasm)

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "aclock-wasm only runs in a browser: build with GOOS=js GOARCH=wasm")
	os.Exit(1)
}
