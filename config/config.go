// Package config loads the analysis definition: pileup binning, turn-on
// variables, MET recalculation schemes and resolution plots.
package config

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/decibelcooper/turnon/efficiency"
	"github.com/decibelcooper/turnon/hist"
	"github.com/decibelcooper/turnon/recalc"
	"github.com/decibelcooper/turnon/resolution"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

// Axis is a regular binning.
type Axis struct {
	NBins int     `yaml:"nbins"`
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
}

// Edges returns the NBins+1 bin edges of a.
func (a Axis) Edges() []float64 {
	if a.NBins <= 0 {
		return nil
	}
	edges := make([]float64, a.NBins+1)
	step := (a.Max - a.Min) / float64(a.NBins)
	for i := range edges {
		edges[i] = a.Min + float64(i)*step
	}
	edges[a.NBins] = a.Max
	return edges
}

func (a Axis) valid() bool { return a.NBins > 0 && a.Max > a.Min }

// Variable is one turn-on curve family.
type Variable struct {
	Name       string    `yaml:"name"`
	Thresholds []float64 `yaml:"thresholds"`

	// Edges takes precedence over nbins/min/max.
	Edges []float64 `yaml:"edges,omitempty"`

	Axis `yaml:",inline"`

	// Offline and Online name the event quantities compared. Both default to
	// Name. Online may also name a MET scheme.
	Offline string `yaml:"offline,omitempty"`
	Online  string `yaml:"online,omitempty"`
}

// Binning returns the reference edges of v.
func (v Variable) Binning() []float64 {
	if len(v.Edges) > 0 {
		return v.Edges
	}
	return v.Axis.Edges()
}

// IEtaWindow selects towers with Low <= |ieta| <= High.
type IEtaWindow struct {
	Low  int `yaml:"low"`
	High int `yaml:"high"`
}

// RegionalPUS is a per-vertex subtraction for each calorimeter region.
type RegionalPUS struct {
	Barrel  float64 `yaml:"barrel"`
	Endcap  float64 `yaml:"endcap"`
	Forward float64 `yaml:"forward"`
}

// MET is a user-defined MET recalculation scheme.
type MET struct {
	Name    string      `yaml:"name"`
	Exclude *IEtaWindow `yaml:"exclude,omitempty"`
	Keep    *IEtaWindow `yaml:"keep,omitempty"`

	// Threshold is the tower energy cut in GeV, raised by ThresholdPerVertex
	// for every pileup vertex.
	Threshold          float64 `yaml:"threshold,omitempty"`
	ThresholdPerVertex float64 `yaml:"thresholdPerVertex,omitempty"`
	// ThresholdOrder is "before" or "after" pileup subtraction.
	ThresholdOrder string `yaml:"thresholdOrder,omitempty"`

	// PUS is subtracted from every tower once per pileup vertex.
	PUS         float64      `yaml:"pus,omitempty"`
	RegionalPUS *RegionalPUS `yaml:"regionalPus,omitempty"`
}

// Resolution books one resolution-versus-X plot.
type Resolution struct {
	Function string `yaml:"function"`
	Offline  string `yaml:"offline"`
	Online   string `yaml:"online"`
	// Versus names an offline quantity.
	Versus string `yaml:"versus"`
	X      Axis   `yaml:"x"`
	Y      Axis   `yaml:"y"`
}

type Config struct {
	PileupBins      []float64       `yaml:"pileupBins"`
	Estimator       string          `yaml:"estimator"`
	ConfidenceLevel float64         `yaml:"confidenceLevel"`
	Geometry        recalc.Geometry `yaml:"geometry"`
	// StandardMET adds the predefined recalc.StandardSchemes.
	StandardMET bool         `yaml:"standardMet"`
	MET         []MET        `yaml:"met,omitempty"`
	Variables   []Variable   `yaml:"variables"`
	Resolutions []Resolution `yaml:"resolutions,omitempty"`
}

// Default returns the configuration every file is applied on top of.
func Default() *Config {
	return &Config{
		PileupBins:      append([]float64(nil), efficiency.DefaultPileupBins...),
		Estimator:       efficiency.ClopperPearson.String(),
		ConfidenceLevel: efficiency.OneSigma,
		Geometry:        recalc.DefaultGeometry,
	}
}

// Load reads and validates a YAML configuration file.
func Load(fname string) (*Config, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, errors.Wrap(err, "opening configuration")
	}
	defer f.Close()
	c, err := Read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", fname)
	}
	return c, nil
}

// Read decodes a configuration from r on top of Default and validates it.
func Read(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading configuration")
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrap(err, "decoding configuration")
	}
	for i := range c.Variables {
		v := &c.Variables[i]
		if v.Offline == "" {
			v.Offline = v.Name
		}
		if v.Online == "" {
			v.Online = v.Name
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func invalid(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalid, format, args...)
}

// Validate checks c for errors that would otherwise surface mid-run.
func (c *Config) Validate() error {
	if _, err := hist.NewSorted("pileup", c.PileupBins, true); err != nil {
		return invalid("pileupBins: %v", err)
	}
	if _, err := efficiency.ParseEstimator(c.Estimator); err != nil {
		return invalid("estimator: %v", err)
	}
	if !(c.ConfidenceLevel > 0 && c.ConfidenceLevel < 1) {
		return invalid("confidenceLevel %v not in (0, 1)", c.ConfidenceLevel)
	}
	if c.Geometry.PhiSegments <= 0 || c.Geometry.EtLSB <= 0 {
		return invalid("geometry %+v", c.Geometry)
	}

	seen := make(map[string]bool)
	for i, v := range c.Variables {
		switch {
		case v.Name == "":
			return invalid("variable %d has no name", i)
		case seen[v.Name]:
			return invalid("variable %q defined twice", v.Name)
		case len(v.Edges) == 0 && !v.Axis.valid():
			return invalid("variable %q needs edges or nbins/min/max", v.Name)
		case len(v.Thresholds) == 0:
			return invalid("variable %q has no thresholds", v.Name)
		}
		if _, err := hist.NewSorted(v.Name, v.Binning(), false); err != nil {
			return invalid("variable %q: %v", v.Name, err)
		}
		seen[v.Name] = true
	}

	schemes := make(map[string]bool)
	if c.StandardMET {
		for _, r := range recalc.StandardSchemes() {
			schemes[r.Name()] = true
		}
	}
	for i, m := range c.MET {
		switch {
		case m.Name == "":
			return invalid("met scheme %d has no name", i)
		case schemes[m.Name]:
			return invalid("met scheme %q defined twice", m.Name)
		case m.Exclude != nil && m.Keep != nil:
			return invalid("met scheme %q sets both exclude and keep", m.Name)
		case m.Exclude != nil && m.Exclude.Low > m.Exclude.High,
			m.Keep != nil && m.Keep.Low > m.Keep.High:
			return invalid("met scheme %q has an empty |ieta| window", m.Name)
		case m.PUS != 0 && m.RegionalPUS != nil:
			return invalid("met scheme %q sets both pus and regionalPus", m.Name)
		}
		if _, err := recalc.ParseThresholdOrder(m.ThresholdOrder); err != nil {
			return invalid("met scheme %q: %v", m.Name, err)
		}
		schemes[m.Name] = true
	}

	for i, r := range c.Resolutions {
		if _, err := resolution.Lookup(r.Function); err != nil {
			return invalid("resolution %d: %v", i, err)
		}
		if r.Offline == "" || r.Online == "" || r.Versus == "" {
			return invalid("resolution %d needs offline, online and versus", i)
		}
		if !r.X.valid() || !r.Y.valid() {
			return invalid("resolution %d has a bad axis", i)
		}
	}
	return nil
}

// Recalculators builds the standard MET schemes, if enabled, followed by the
// user-defined ones.
func (c *Config) Recalculators() ([]*recalc.Recalculator, error) {
	var out []*recalc.Recalculator
	if c.StandardMET {
		out = append(out, recalc.StandardSchemes(recalc.WithGeometry(c.Geometry))...)
	}
	for _, m := range c.MET {
		order, err := recalc.ParseThresholdOrder(m.ThresholdOrder)
		if err != nil {
			return nil, err
		}
		opts := []recalc.Option{
			recalc.WithGeometry(c.Geometry),
			recalc.WithOrder(order),
		}
		switch {
		case m.Exclude != nil:
			opts = append(opts, recalc.WithExclude(recalc.ExcludeAbsIEta(m.Exclude.Low, m.Exclude.High)))
		case m.Keep != nil:
			opts = append(opts, recalc.WithExclude(recalc.KeepAbsIEta(m.Keep.Low, m.Keep.High)))
		}
		switch {
		case m.RegionalPUS != nil:
			p := m.RegionalPUS
			opts = append(opts, recalc.WithSubtract(recalc.RegionalPileup(p.Barrel, p.Endcap, p.Forward)))
		case m.PUS != 0:
			opts = append(opts, recalc.WithSubtract(recalc.PerTowerPileup(m.PUS)))
		}
		if m.Threshold != 0 || m.ThresholdPerVertex != 0 {
			opts = append(opts, recalc.WithThreshold(recalc.PileupThreshold(m.Threshold, m.ThresholdPerVertex)))
		}
		out = append(out, recalc.New(m.Name, opts...))
	}
	return out, nil
}

// NewEfficiencies books an efficiency collection with every variable of c.
func (c *Config) NewEfficiencies(opts ...efficiency.Option) (*efficiency.Collection, error) {
	est, err := efficiency.ParseEstimator(c.Estimator)
	if err != nil {
		return nil, err
	}
	opts = append([]efficiency.Option{efficiency.WithEstimator(est, c.ConfidenceLevel)}, opts...)
	coll, err := efficiency.NewCollection(c.PileupBins, opts...)
	if err != nil {
		return nil, err
	}
	for _, v := range c.Variables {
		if err := coll.AddVariable(v.Name, v.Binning(), v.Thresholds); err != nil {
			return nil, err
		}
	}
	return coll, nil
}

// NewResolutions books every resolution plot of c.
func (c *Config) NewResolutions() ([]*resolution.VsX, error) {
	var out []*resolution.VsX
	for _, r := range c.Resolutions {
		fn, err := resolution.Lookup(r.Function)
		if err != nil {
			return nil, err
		}
		plot, err := resolution.New(fn, r.Online, r.Offline, r.Versus, c.PileupBins,
			resolution.Axis{NBins: r.X.NBins, Low: r.X.Min, High: r.X.Max},
			resolution.Axis{NBins: r.Y.NBins, Low: r.Y.Min, High: r.Y.Max},
		)
		if err != nil {
			return nil, err
		}
		out = append(out, plot)
	}
	return out, nil
}
