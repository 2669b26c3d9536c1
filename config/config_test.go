package config

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decibelcooper/turnon/efficiency"
	"github.com/decibelcooper/turnon/recalc"
)

func TestDefaults(t *testing.T) {
	c, err := Parse([]byte("variables: []\n"))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 13, 20, 999}, c.PileupBins)
	assert.Equal(t, "clopper-pearson", c.Estimator)
	assert.Equal(t, efficiency.OneSigma, c.ConfidenceLevel)
	assert.Equal(t, recalc.DefaultGeometry, c.Geometry)

	// Default must not alias the package-level bins.
	c.PileupBins[0] = -1
	assert.Equal(t, 0.0, efficiency.DefaultPileupBins[0])
}

func TestLoad(t *testing.T) {
	assert := assert.New(t)

	c, err := Load("testdata/analysis.yaml")
	require.NoError(t, err)
	assert.Equal([]float64{0, 10, 20, 30, 999}, c.PileupBins)
	require.Len(t, c.Variables, 2)

	jet := c.Variables[0]
	assert.Equal("recoJetPt", jet.Offline)
	assert.Equal("l1JetPt", jet.Online)
	assert.Len(jet.Binning(), 11)

	met := c.Variables[1]
	assert.Equal("MET", met.Offline, "offline name defaults to the variable name")
	assert.Equal("l1MetFull", met.Online)
	edges := met.Binning()
	require.Len(t, edges, 21)
	assert.Equal(0.0, edges[0])
	assert.Equal(200.0, edges[20])
	assert.Equal(10.0, edges[1])

	require.Len(t, c.MET, 2)
	assert.Equal(&IEtaWindow{Low: 29, High: 41}, c.MET[0].Exclude)
	assert.Equal(0.05, c.MET[1].RegionalPUS.Forward)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("testdata/nope.yaml")
	assert.Error(t, err)
}

func TestRecalculators(t *testing.T) {
	c, err := Load("testdata/analysis.yaml")
	require.NoError(t, err)

	rs, err := c.Recalculators()
	require.NoError(t, err)
	require.Len(t, rs, len(recalc.StandardSchemes())+2)

	byName := make(map[string]*recalc.Recalculator)
	for _, r := range rs {
		byName[r.Name()] = r
	}
	require.Contains(t, byName, "l1MetFull")
	require.Contains(t, byName, "l1MetPUS")

	towers := []recalc.Tower{
		{IEta: 1, IPhi: 0, IEt: 10},   // 5 GeV, minus 0.2 GeV at pileup 10
		{IEta: 30, IPhi: 18, IEt: 40}, // forward, excluded
		{IEta: 2, IPhi: 36, IEt: 2},   // 1 GeV, below the cut after subtraction
	}
	met := byName["l1MetPUS"].Calculate(towers, 10)
	assert.InDelta(t, 4.8, met.Mag, 1e-9)

	full := byName["l1MetFull"].Calculate(towers, 10)
	assert.Greater(t, full.Mag, met.Mag)
}

func TestRecalculatorsGeometry(t *testing.T) {
	c, err := Parse([]byte(`
geometry: {phiSegments: 36, etLSB: 0.5}
standardMet: true
met: [{name: mine}]
`))
	require.NoError(t, err)
	rs, err := c.Recalculators()
	require.NoError(t, err)
	require.Len(t, rs, len(recalc.StandardSchemes())+1)

	towers := []recalc.Tower{{IPhi: 0, IEt: 10}, {IPhi: 18, IEt: 10}}
	for _, r := range rs {
		assert.InDelta(t, 0, r.Calculate(towers, 0).Mag, 1e-9, r.Name())
	}
}

func TestNewEfficiencies(t *testing.T) {
	c, err := Load("testdata/analysis.yaml")
	require.NoError(t, err)
	c.Estimator = "bayesian"

	coll, err := c.NewEfficiencies()
	require.NoError(t, err)
	assert.Equal(t, []string{"JetPt", "MET"}, coll.Variables())
	assert.Equal(t, []float64{40, 60, 80}, coll.Thresholds("MET"))
	assert.Equal(t, c.PileupBins, coll.PileupBins())

	curve, err := coll.CurveAt(0, "JetPt", 70)
	require.NoError(t, err)
	assert.Equal(t, efficiency.Bayesian, curve.Estimator())
}

func TestNewResolutions(t *testing.T) {
	c, err := Load("testdata/analysis.yaml")
	require.NoError(t, err)

	plots, err := c.NewResolutions()
	require.NoError(t, err)
	require.Len(t, plots, 1)
	assert.Equal(t, "resolution_vs_recoJetEta__l1JetPt__recoJetPt", plots[0].Name())
	assert.Equal(t, "energy", plots[0].Func().Name)
}

func TestInvalid(t *testing.T) {
	for _, tc := range []struct {
		name string
		yaml string
	}{
		{"pileup", "pileupBins: [10, 10]"},
		{"estimator", "estimator: wilson"},
		{"cl", "confidenceLevel: 1.5"},
		{"geometry", "geometry: {phiSegments: 0, etLSB: 0.5}"},
		{"unnamed variable", "variables: [{edges: [0, 1], thresholds: [1]}]"},
		{"duplicate variable", "variables: [{name: a, edges: [0, 1], thresholds: [1]}, {name: a, edges: [0, 1], thresholds: [1]}]"},
		{"no binning", "variables: [{name: a, thresholds: [1]}]"},
		{"no thresholds", "variables: [{name: a, nbins: 2, min: 0, max: 1}]"},
		{"bad edges", "variables: [{name: a, edges: [0, 1, 1], thresholds: [1]}]"},
		{"exclude and keep", "met: [{name: m, exclude: {low: 1, high: 2}, keep: {low: 3, high: 4}}]"},
		{"empty window", "met: [{name: m, keep: {low: 4, high: 3}}]"},
		{"two subtractions", "met: [{name: m, pus: 1, regionalPus: {barrel: 1}}]"},
		{"order", "met: [{name: m, thresholdOrder: during}]"},
		{"shadowed scheme", "standardMet: true\nmet: [{name: l1MetFull}]"},
		{"resolution function", "resolutions: [{function: mass, offline: a, online: b, versus: c, x: {nbins: 1, min: 0, max: 1}, y: {nbins: 1, min: 0, max: 1}}]"},
		{"resolution axis", "resolutions: [{function: phi, offline: a, online: b, versus: c, x: {nbins: 1, min: 0, max: 1}}]"},
		{"resolution names", "resolutions: [{function: phi, online: b, versus: c, x: {nbins: 1, min: 0, max: 1}, y: {nbins: 1, min: 0, max: 1}}]"},
	} {
		_, err := Parse([]byte(tc.yaml))
		assert.Equal(t, ErrInvalid, errors.Cause(err), tc.name)
	}

	_, err := Parse([]byte("variables: {"))
	assert.Error(t, err)
}
