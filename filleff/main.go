package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"sort"

	"github.com/pkg/profile"
	log "github.com/sirupsen/logrus"

	"github.com/decibelcooper/turnon"
	"github.com/decibelcooper/turnon/config"
)

var (
	cfgFile    = flag.String("config", "", "analysis configuration (YAML)")
	outFile    = flag.String("o", "efficiencies.gob", "output efficiency bundle")
	workers    = flag.Int("j", runtime.NumCPU(), "number of input files processed concurrently")
	plotDir    = flag.String("plots", "", "directory for resolution and pileup plots; none are drawn if empty")
	title      = flag.String("title", "", "plot title")
	verbose    = flag.Bool("v", false, "debug logging")
	doProf     = flag.Bool("profile", false, "write a CPU profile")
	formats    turnon.StringArrayFlags
	pileupBins turnon.FloatArrayFlags
)

func init() {
	flag.Var(&formats, "fmt", "plot file format, may be repeated (default pdf)")
	flag.Var(&pileupBins, "pu", "pileup bin edges, overriding the configuration")
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: `+os.Args[0]+` [options] -config <analysis.yaml> <event-files>...

options:
`,
	)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = printUsage
	flag.Parse()
	if flag.NArg() < 1 || *cfgFile == "" {
		printUsage()
		log.Fatal("Invalid arguments")
	}
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	if *doProf {
		defer profile.Start().Stop()
	}

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		log.Fatal(err)
	}
	if len(pileupBins.Array) > 0 {
		cfg.PileupBins = pileupBins.Array
		if err := cfg.Validate(); err != nil {
			log.Fatal(err)
		}
	}

	a, err := turnon.ProcessFiles(context.Background(), cfg, flag.Args(), *workers, log.StandardLogger())
	if err != nil {
		log.Fatal(err)
	}
	logSkipped(a.Skipped())
	log.WithFields(log.Fields{
		"events": a.Events(),
		"files":  flag.NArg(),
	}).Info("processed events")

	if err := a.Efficiencies.Save(*outFile); err != nil {
		log.Fatal(err)
	}
	log.WithField("file", *outFile).Info("saved efficiency bundle")

	if *plotDir == "" {
		return
	}
	if err := os.MkdirAll(*plotDir, 0o755); err != nil {
		log.Fatal(err)
	}
	out := turnon.Output{Dir: *plotDir, Formats: formats, Title: *title}
	for _, r := range a.Resolutions {
		files, err := turnon.DrawResolution(r, out)
		if err != nil {
			log.Fatal(err)
		}
		log.WithField("plot", r.Name()).Debugf("wrote %d files", len(files))
	}
	if _, err := turnon.DrawPileup(a.Efficiencies.PileupHist(), out); err != nil {
		log.Fatal(err)
	}
}

func logSkipped(skipped map[string]int) {
	names := make([]string, 0, len(skipped))
	for name := range skipped {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		log.WithFields(log.Fields{
			"variable": name,
			"events":   skipped[name],
		}).Warn("events skipped for missing quantities")
	}
}
