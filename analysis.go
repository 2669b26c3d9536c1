package turnon

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/decibelcooper/turnon/config"
	"github.com/decibelcooper/turnon/efficiency"
	"github.com/decibelcooper/turnon/event"
	"github.com/decibelcooper/turnon/recalc"
	"github.com/decibelcooper/turnon/resolution"
)

// PileupQuantity names the event pileup when used as a resolution x axis.
const PileupQuantity = "pileup"

// Analysis fills the efficiency curves and resolution maps of a
// configuration from events.
type Analysis struct {
	Efficiencies *efficiency.Collection
	Resolutions  []*resolution.VsX

	cfg     *config.Config
	schemes []*recalc.Recalculator
	log     logrus.FieldLogger

	events  int
	skipped map[string]int
}

func NewAnalysis(cfg *config.Config, log logrus.FieldLogger) (*Analysis, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	effs, err := cfg.NewEfficiencies(efficiency.WithLogger(log))
	if err != nil {
		return nil, err
	}
	res, err := cfg.NewResolutions()
	if err != nil {
		return nil, err
	}
	schemes, err := cfg.Recalculators()
	if err != nil {
		return nil, err
	}
	return &Analysis{
		Efficiencies: effs,
		Resolutions:  res,
		cfg:          cfg,
		schemes:      schemes,
		log:          log,
		skipped:      make(map[string]int),
	}, nil
}

// Events is the number of processed events.
func (a *Analysis) Events() int { return a.events }

// Skipped counts, per variable, the events missing its offline or online
// quantity.
func (a *Analysis) Skipped() map[string]int { return a.skipped }

// Process recalculates the MET schemes of ev, stores each result as an
// online quantity named after its scheme, and fills every variable and
// resolution map.
func (a *Analysis) Process(ev *event.Event) {
	a.events++
	if len(a.schemes) > 0 && ev.Online == nil {
		ev.Online = make(map[string]float64, len(a.schemes))
	}
	for _, s := range a.schemes {
		ev.Online[s.Name()] = s.Calculate(ev.Towers, ev.Pileup).Mag
	}

	a.Efficiencies.SetPileup(ev.Pileup)
	for _, v := range a.cfg.Variables {
		off, on, ok := ev.Pair(v.Offline, v.Online)
		if !ok {
			if a.skipped[v.Name] == 0 {
				a.log.WithField("variable", v.Name).Debug("event lacks offline or online quantity")
			}
			a.skipped[v.Name]++
			continue
		}
		a.Efficiencies.Fill(v.Name, off, on, ev.Weight)
	}

	for _, r := range a.Resolutions {
		off, on, ok := ev.Pair(r.Offline(), r.Online())
		if !ok {
			continue
		}
		versus, ok := ev.Offline[r.Versus()]
		if !ok && r.Versus() == PileupQuantity {
			versus, ok = ev.Pileup, true
		}
		if !ok {
			continue
		}
		r.Fill(ev.Pileup, versus, off, on)
	}
}

// ProcessReader consumes every event of r.
func (a *Analysis) ProcessReader(ctx context.Context, r *event.Reader) error {
	events := r.ScanEvents()
	for ev := range events {
		if err := ctx.Err(); err != nil {
			// Drain so the scanning goroutine exits.
			for range events {
			}
			return err
		}
		a.Process(ev)
	}
	return r.Err()
}

// Merge adds the contents of other into a. Both must come from the same
// configuration.
func (a *Analysis) Merge(other *Analysis) error {
	if err := a.Efficiencies.Merge(other.Efficiencies); err != nil {
		return err
	}
	if len(a.Resolutions) != len(other.Resolutions) {
		return errors.Wrap(resolution.ErrInconsistent, "different resolution plots")
	}
	for i, r := range a.Resolutions {
		if err := r.Merge(other.Resolutions[i]); err != nil {
			return err
		}
	}
	a.events += other.events
	for name, n := range other.skipped {
		a.skipped[name] += n
	}
	return nil
}

// ProcessFiles analyses files with at most workers files open at once, each
// into its own Analysis, and merges the results in file order.
func ProcessFiles(ctx context.Context, cfg *config.Config, files []string, workers int, log logrus.FieldLogger) (*Analysis, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if workers < 1 {
		workers = 1
	}
	results := make([]*Analysis, len(files))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, fname := range files {
		i, fname := i, fname
		eg.Go(func() error {
			flog := log.WithField("file", fname)
			a, err := NewAnalysis(cfg, flog)
			if err != nil {
				return err
			}
			r, err := event.Open(fname)
			if err != nil {
				return err
			}
			defer r.Close()
			if err := a.ProcessReader(ctx, r); err != nil {
				return errors.Wrapf(err, "processing %s", fname)
			}
			flog.WithField("events", a.Events()).Info("file done")
			results[i] = a
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	total, err := NewAnalysis(cfg, log)
	if err != nil {
		return nil, err
	}
	for _, a := range results {
		if err := total.Merge(a); err != nil {
			return nil, err
		}
	}
	return total, nil
}
