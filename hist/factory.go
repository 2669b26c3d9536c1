package hist

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go-hep.org/x/hep/hbook"
)

// Kind enumerates the histogram kinds built into this package.
type Kind int

const (
	KindH1D Kind = iota + 1
	KindH2D
	KindP1D
)

func (k Kind) String() string {
	switch k {
	case KindH1D:
		return "H1D"
	case KindH2D:
		return "H2D"
	case KindP1D:
		return "P1D"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var builtinNames = map[string]Kind{
	"H1D":      KindH1D,
	"Hist":     KindH1D,
	"TH1F":     KindH1D,
	"TH1D":     KindH1D,
	"H2D":      KindH2D,
	"Hist2D":   KindH2D,
	"TH2F":     KindH2D,
	"TH2D":     KindH2D,
	"P1D":      KindP1D,
	"Profile":  KindP1D,
	"TProfile": KindP1D,
}

var (
	ErrUnknownKind   = errors.New("hist: no histogram kind with this name")
	ErrAmbiguousKind = errors.New("hist: several histogram kinds with this name")
	ErrBadArgs       = errors.New("hist: bad construction arguments")
)

// Constructor builds a histogram from fixed arguments.
type Constructor func(name, title string, args []interface{}) (Histogram, error)

func builtinConstructor(k Kind) Constructor {
	switch k {
	case KindH1D:
		return buildH1
	case KindH2D:
		return buildH2
	case KindP1D:
		return buildP1
	}
	return nil
}

// Registry holds externally provided histogram kinds. Names resolve against
// the built-in kinds and the registry together.
type Registry struct {
	mu    sync.Mutex
	kinds map[string]Constructor
}

func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]Constructor)}
}

// DefaultRegistry is used by NewFactory.
var DefaultRegistry = NewRegistry()

// Register adds a kind. Registering the same name twice is an error; shadowing
// a built-in name is allowed but makes that name ambiguous.
func (r *Registry) Register(name string, c Constructor) error {
	if c == nil {
		return errors.Errorf("hist: nil constructor for %q", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.kinds[name]; dup {
		return errors.Errorf("hist: kind %q already registered", name)
	}
	r.kinds[name] = c
	return nil
}

func (r *Registry) resolve(name string) (Constructor, error) {
	var found []Constructor
	if k, ok := builtinNames[name]; ok {
		found = append(found, builtinConstructor(k))
	}
	r.mu.Lock()
	if c, ok := r.kinds[name]; ok {
		found = append(found, c)
	}
	r.mu.Unlock()

	switch len(found) {
	case 0:
		return nil, errors.Wrapf(ErrUnknownKind, "%q", name)
	case 1:
		return found[0], nil
	}
	return nil, errors.Wrapf(ErrAmbiguousKind, "%q", name)
}

// Factory builds independent histograms of one kind with fixed arguments.
type Factory struct {
	kind  string
	ctor  Constructor
	args  []interface{}
	name  string
	title string
}

// FactoryOption configures a Factory.
type FactoryOption func(*factoryConfig)

type factoryConfig struct {
	registry *Registry
	args     []interface{}
	name     string
	title    string
}

// WithArgs sets the construction arguments, e.g. (nbins, low, high) or a
// []float64 of edges for 1-dim kinds.
func WithArgs(args ...interface{}) FactoryOption {
	return func(c *factoryConfig) { c.args = args }
}

// WithName sets a fmt template formatted with the arguments given to Build.
func WithName(tmpl string) FactoryOption {
	return func(c *factoryConfig) { c.name = tmpl }
}

// WithTitle sets a fmt template formatted with the arguments given to Build.
func WithTitle(tmpl string) FactoryOption {
	return func(c *factoryConfig) { c.title = tmpl }
}

func WithRegistry(r *Registry) FactoryOption {
	return func(c *factoryConfig) { c.registry = r }
}

// NewFactory resolves kind once and checks the arguments with a trial build.
func NewFactory(kind string, opts ...FactoryOption) (*Factory, error) {
	cfg := factoryConfig{registry: DefaultRegistry}
	for _, opt := range opts {
		opt(&cfg)
	}
	ctor, err := cfg.registry.resolve(kind)
	if err != nil {
		return nil, err
	}
	if _, err := ctor("", "", cfg.args); err != nil {
		return nil, errors.Wrapf(err, "kind %q", kind)
	}
	return &Factory{
		kind:  kind,
		ctor:  ctor,
		args:  cfg.args,
		name:  cfg.name,
		title: cfg.title,
	}, nil
}

func (f *Factory) Kind() string { return f.kind }

// Build returns a new histogram, formatting the name and title templates with
// fmtArgs.
func (f *Factory) Build(fmtArgs ...interface{}) (Histogram, error) {
	return f.ctor(format(f.name, fmtArgs), format(f.title, fmtArgs), f.args)
}

func format(tmpl string, args []interface{}) string {
	if tmpl == "" || len(args) == 0 || !strings.Contains(tmpl, "%") {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// Builder adapts f into a BuildFunc. label turns a coordinate into the
// arguments for the name and title templates. A failed build leaves the slot
// empty and is logged to log, or to the standard logger if log is nil.
func (f *Factory) Builder(label func(Coord) []interface{}, log logrus.FieldLogger) BuildFunc[Histogram] {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return func(c Coord) (Histogram, bool) {
		var args []interface{}
		if label != nil {
			args = label(c)
		}
		h, err := f.Build(args...)
		if err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"kind":  f.kind,
				"coord": c,
			}).Error("cannot build histogram")
			return nil, false
		}
		return h, true
	}
}

func buildH1(name, title string, args []interface{}) (Histogram, error) {
	if len(args) == 1 {
		edges, ok := args[0].([]float64)
		if !ok || len(edges) < 2 {
			return nil, errors.Wrap(ErrBadArgs, "H1D wants edges []float64")
		}
		if err := checkEdges(edges); err != nil {
			return nil, err
		}
		return newH1(name, title, hbook.NewH1DFromEdges(edges)), nil
	}
	n, lo, hi, err := axisArgs("H1D", args)
	if err != nil {
		return nil, err
	}
	return newH1(name, title, hbook.NewH1D(n, lo, hi)), nil
}

func buildH2(name, title string, args []interface{}) (Histogram, error) {
	if len(args) != 6 {
		return nil, errors.Wrap(ErrBadArgs, "H2D wants (nx, xlow, xhigh, ny, ylow, yhigh)")
	}
	nx, xlo, xhi, err := axisArgs("H2D x", args[:3])
	if err != nil {
		return nil, err
	}
	ny, ylo, yhi, err := axisArgs("H2D y", args[3:])
	if err != nil {
		return nil, err
	}
	return newH2(name, title, hbook.NewH2D(nx, xlo, xhi, ny, ylo, yhi)), nil
}

func buildP1(name, title string, args []interface{}) (Histogram, error) {
	n, lo, hi, err := axisArgs("P1D", args)
	if err != nil {
		return nil, err
	}
	return newP1(name, title, hbook.NewP1D(n, lo, hi)), nil
}

func axisArgs(what string, args []interface{}) (int, float64, float64, error) {
	if len(args) != 3 {
		return 0, 0, 0, errors.Wrapf(ErrBadArgs, "%s wants (nbins, low, high)", what)
	}
	n, ok := args[0].(int)
	if !ok || n <= 0 {
		return 0, 0, 0, errors.Wrapf(ErrBadArgs, "%s bin count %v", what, args[0])
	}
	lo, ok1 := toFloat(args[1])
	hi, ok2 := toFloat(args[2])
	if !ok1 || !ok2 || !(hi > lo) {
		return 0, 0, 0, errors.Wrapf(ErrBadArgs, "%s range [%v, %v)", what, args[1], args[2])
	}
	return n, lo, hi, nil
}

func checkEdges(edges []float64) error {
	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			return errors.Wrapf(ErrBadArgs, "edges not strictly increasing at %v", edges[i])
		}
	}
	return nil
}
