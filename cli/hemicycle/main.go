package main

import (
	"errors"
	"fmt"
	"os"

	hemicyclecmder "github.com/openhemicycle/hemicycle/cmd/hemicycle"
	"github.com/openhemicycle/hemicycle/pkg/pipeline"
)

func main() {
	cmd := hemicyclecmder.NewHemicycleCmd()
	if err := cmd.Execute(); err != nil {
		// A run with nothing new to ingest is an expected idle outcome,
		// not a failure worth a stack of error output.
		if errors.Is(err, pipeline.ErrNoNewSittings) {
			fmt.Fprintln(os.Stderr, "no new sittings")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
