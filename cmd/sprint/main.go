package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/banshee-data/sprint.report/internal/version"
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "analyze":
		handleAnalyze(args)
	case "serve":
		handleServe(args)
	case "migrate":
		handleMigrate(args)
	case "version":
		fmt.Println(version.String())
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`sprint - video sprint timing analyzer

Usage: sprint <command> [options]

Commands:
  analyze    Time one sprint from a video or an image directory
  serve      Serve stored runs, charts and metrics over HTTP
  migrate    Apply or inspect database migrations (up, down, version)
  version    Show build information
  help       Show this help message

Analyze flags:
  -frames <dir>          Directory of frame images, sorted by name
  -video <file>          Video file (requires a build with -tags=gocv)
  -fps <rate>            Frame rate override (required for -frames unless set in config)
  -detections <file>     JSON detections keyed by frame index
  -detector-url <url>    HTTP inference endpoint (/detect/objects, /detect/poses)
  -config <file>         Sprint config JSON (see config/sprint.defaults.json)
  -db <file>             Record the run in this SQLite database
  -units <unit>          Speed units: mps, kmph, kph, mph
  -plot <file>           Write the distance-time plot (png, svg, pdf)
  -chart <file>          Write the interactive HTML chart
  -csv <file>            Write the trajectory as CSV
  -parquet <file>        Write the trajectory as Parquet
  -overlay <dir>         Write annotated PNG frames
  -metrics-file <file>   Write run metrics in Prometheus text format

Examples:
  # Time a sprint from exported frames with recorded detections
  sprint analyze -frames ./frames -fps 30 -detections detections.json -plot graph.png

  # Use a running detector service and keep the result
  sprint analyze -video sprint.mp4 -detector-url http://localhost:9000 -db sprint.db

  # Browse stored runs
  sprint serve -db sprint.db -listen :8080`)
}
