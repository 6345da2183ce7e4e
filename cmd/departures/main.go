// Command departures prints the upcoming departures of one station as
// JSON, tracing the lookup to the configured debug log.
//
//	departures [-config config.yaml] <station-id>
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/tylerverry/mvg-display/internal/config"
	"github.com/tylerverry/mvg-display/internal/departures"
	"github.com/tylerverry/mvg-display/internal/logging"
)

const previewLength = 200

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, nil)
	cancel()
	os.Exit(code)
}

// run executes the command. A nil source means the one selected in the
// config.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, source departures.Source) int {
	fs := flag.NewFlagSet("departures", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "config.yaml", "path to the YAML config file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(stdout, `{"error":"Station ID required"}`)
		return 1
	}
	stationID := fs.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		printJSON(stdout, departures.Result{Error: err.Error()})
		return 1
	}

	debug := logging.NewFileLogger(cfg.Departures.DebugLog)
	debug.Stderr = stderr
	debug.Printf("===== BRIDGE CALLED =====")

	if source == nil {
		source, err = departures.NewSource(cfg.Departures)
		if err != nil {
			debug.Printf("ERROR: %v", err)
			printJSON(stdout, departures.Result{Error: err.Error()})
			return 1
		}
	}

	res := departures.NewBridge(source, debug).Query(ctx, stationID)

	out, err := json.Marshal(res)
	if err != nil {
		debug.Printf("ERROR: %v", err)
		printJSON(stdout, departures.Result{Error: err.Error()})
		return 1
	}

	debug.Printf("RETURNING JSON: %s...", preview(out))
	fmt.Fprintln(stdout, string(out))
	debug.Printf("===== BRIDGE FINISHED =====")

	return 0
}

// printJSON writes a failure envelope with an empty departures list.
func printJSON(w io.Writer, res departures.Result) {
	if res.Departures == nil {
		res.Departures = []departures.Record{}
	}
	out, _ := json.Marshal(res)
	fmt.Fprintln(w, string(out))
}

func preview(b []byte) string {
	r := []rune(string(b))
	if len(r) > previewLength {
		r = r[:previewLength]
	}
	return string(r)
}
