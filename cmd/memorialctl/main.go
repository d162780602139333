package main

import (
	"fmt"
	"os"
)

func main() {
	a := &app{out: os.Stdout, in: os.Stdin}
	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
