package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pkg/profile"
	log "github.com/sirupsen/logrus"

	"github.com/decibelcooper/turnon"
	"github.com/decibelcooper/turnon/efficiency"
)

var (
	outDir    = flag.String("o", "plots", "output directory")
	title     = flag.String("title", "", "plot title")
	fits      = flag.Bool("fit", false, "fit and overlay turn-on curves")
	estimator = flag.String("estimator", "", "override the stored interval estimator")
	yodaFile  = flag.String("yoda", "", "also export every curve to this YODA file")
	merged    = flag.String("merged", "", "also save the merged bundle to this file")
	verbose   = flag.Bool("v", false, "debug logging")
	doProf    = flag.Bool("profile", false, "write a CPU profile")
	formats   turnon.StringArrayFlags
	variables turnon.StringArrayFlags
)

func init() {
	flag.Var(&formats, "fmt", "plot file format, may be repeated (default pdf)")
	flag.Var(&variables, "var", "variable to draw, may be repeated (default all)")
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: `+os.Args[0]+` [options] <efficiency-bundles>...

options:
`,
	)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = printUsage
	flag.Parse()
	if flag.NArg() < 1 {
		printUsage()
		log.Fatal("Invalid arguments")
	}
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	if *doProf {
		defer profile.Start().Stop()
	}

	var opts []efficiency.Option
	opts = append(opts, efficiency.WithLogger(log.StandardLogger()))
	if *estimator != "" {
		est, err := efficiency.ParseEstimator(*estimator)
		if err != nil {
			log.Fatal(err)
		}
		opts = append(opts, efficiency.WithEstimator(est, efficiency.OneSigma))
	}

	var coll *efficiency.Collection
	for _, fname := range flag.Args() {
		c, err := efficiency.Load(fname, opts...)
		if err != nil {
			log.Fatal(err)
		}
		if coll == nil {
			coll = c
			continue
		}
		if err := coll.Merge(c); err != nil {
			log.WithField("file", fname).Fatal(err)
		}
	}
	coll.Summarise()
	coll.ComputeAllEfficiencies()
	if *fits {
		coll.FitAll()
	}

	if *merged != "" {
		if err := coll.Save(*merged); err != nil {
			log.Fatal(err)
		}
	}
	if *yodaFile != "" {
		f, err := os.Create(*yodaFile)
		if err != nil {
			log.Fatal(err)
		}
		if err := coll.ExportYODA(f); err != nil {
			log.Fatal(err)
		}
		if err := f.Close(); err != nil {
			log.Fatal(err)
		}
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatal(err)
	}
	out := turnon.Output{Dir: *outDir, Formats: formats, Title: *title}
	for _, name := range coll.Variables() {
		if !variables.Has(name) {
			continue
		}
		b, err := coll.PlotBundle(name)
		if err != nil {
			log.Fatal(err)
		}
		files, err := turnon.DrawEfficiencies(b, out, *fits)
		if err != nil {
			log.Fatal(err)
		}
		dists, err := turnon.DrawDistributions(coll, name, out)
		if err != nil {
			log.Fatal(err)
		}
		log.WithField("variable", name).Infof("wrote %d plots", len(files)+len(dists))
	}
	if _, err := turnon.DrawPileup(coll.PileupHist(), out); err != nil {
		log.Fatal(err)
	}
}
