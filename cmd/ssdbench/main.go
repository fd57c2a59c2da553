package main

import (
	"fmt"
	"os"
)

func main() {
	app := App(run)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", app.Name, err)
		os.Exit(1)
	}
}
