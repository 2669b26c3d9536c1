package resolution

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Func compares an online quantity with its offline reference.
type Func struct {
	Name string
	// Label is an axis label template; %[1]s is the online title and %[2]s
	// the offline one.
	Label string
	Diff  func(online, offline float64) float64
}

var (
	// Energy is the relative difference (online - offline) / offline.
	Energy = Func{
		Name:  "energy",
		Label: "(%[1]s - %[2]s) / %[2]s",
		Diff: func(online, offline float64) float64 {
			if offline == 0 {
				return math.NaN()
			}
			return (online - offline) / offline
		},
	}

	// Position is the plain difference online - offline.
	Position = Func{
		Name:  "position",
		Label: "%[1]s - %[2]s",
		Diff:  func(online, offline float64) float64 { return online - offline },
	}

	// Phi is the azimuthal difference wrapped into [-pi, pi).
	Phi = Func{
		Name:  "phi",
		Label: "%[1]s - %[2]s",
		Diff: func(online, offline float64) float64 {
			return DeltaPhi(online, offline)
		},
	}
)

// ErrUnknownFunc is returned by Lookup for names it does not know.
var ErrUnknownFunc = errors.New("resolution: unknown resolution function")

// Lookup returns the resolution function called name.
func Lookup(name string) (Func, error) {
	switch strings.ToLower(name) {
	case Energy.Name:
		return Energy, nil
	case Position.Name, "eta":
		return Position, nil
	case Phi.Name:
		return Phi, nil
	}
	return Func{}, errors.Wrapf(ErrUnknownFunc, "%q", name)
}

// DeltaPhi returns a - b wrapped into [-pi, pi).
func DeltaPhi(a, b float64) float64 {
	d := math.Mod(a-b+math.Pi, 2*math.Pi)
	if d < 0 {
		d += 2 * math.Pi
	}
	return d - math.Pi
}
