// Command convert-stations turns the plain-text station dump into the
// JSON station list used by the display server.
//
//	convert-stations [-config config.yaml] [-input data/stations.txt] [-output data/stations.json]
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tylerverry/mvg-display/internal/config"
	"github.com/tylerverry/mvg-display/internal/stations"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("convert-stations", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "config.yaml", "path to the YAML config file")
	input := fs.String("input", "", "station text dump (overrides stations.input)")
	output := fs.String("output", "", "JSON output file (overrides stations.output)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Read(*configPath)
	if err != nil {
		fmt.Fprintf(stdout, "Error: %v\n", err)
		return 1
	}

	if *input != "" {
		cfg.Stations.Input = *input
	}
	if *output != "" {
		cfg.Stations.Output = *output
	}
	if err := cfg.Stations.Validate(); err != nil {
		fmt.Fprintf(stdout, "Error: %v\n", err)
		return 1
	}

	res, err := stations.Convert(cfg.Stations.Input, cfg.Stations.Output)
	if err != nil {
		fmt.Fprintf(stdout, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintln(stdout, res.Summary())
	return 0
}
