package turnon

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decibelcooper/turnon/config"
	"github.com/decibelcooper/turnon/event"
	"github.com/decibelcooper/turnon/hist"
	"github.com/decibelcooper/turnon/recalc"
)

const analysisConfig = `
pileupBins: [0, 10, 20, 999]
standardMet: true
variables:
  - name: JetPt
    edges: [0, 20, 40, 60, 100]
    thresholds: [30]
  - name: MET
    nbins: 10
    min: 0
    max: 100
    thresholds: [40]
    online: l1MetFull
resolutions:
  - function: energy
    offline: JetPt
    online: JetPt
    versus: pileup
    x: {nbins: 4, min: 0, max: 40}
    y: {nbins: 20, min: -1, max: 1}
`

func loadAnalysisConfig(t *testing.T) *config.Config {
	cfg, err := config.Parse([]byte(analysisConfig))
	require.NoError(t, err)
	return cfg
}

func testEvents() []*event.Event {
	return []*event.Event{
		{
			Pileup:  12,
			Weight:  1,
			Towers:  []recalc.Tower{{IEta: 1, IPhi: 0, IEt: 100}},
			Offline: map[string]float64{"JetPt": 45, "MET": 55},
			Online:  map[string]float64{"JetPt": 36},
		},
		{
			Pileup:  3,
			Weight:  1,
			Offline: map[string]float64{"JetPt": 25, "MET": 10},
			Online:  map[string]float64{"JetPt": 20},
		},
		{
			Pileup:  25,
			Weight:  2,
			Offline: map[string]float64{"MET": 10},
		},
	}
}

func TestAnalysisProcess(t *testing.T) {
	assert := assert.New(t)
	logger, _ := test.NewNullLogger()

	a, err := NewAnalysis(loadAnalysisConfig(t), logger)
	require.NoError(t, err)
	events := testEvents()
	for _, ev := range events {
		a.Process(ev)
	}
	assert.Equal(3, a.Events())
	assert.Equal(map[string]int{"JetPt": 1}, a.Skipped())

	// The recalculated MET becomes an online quantity.
	assert.InDelta(50, events[0].Online["l1MetFull"], 1e-9)
	assert.Equal(0.0, events[1].Online["l1MetFull"])

	curve, ok := a.Efficiencies.Curve(12, "MET", 40)
	require.True(t, ok)
	assert.Equal(int64(1), curve.Total().Entries())
	assert.Equal(1.0, curve.Pass().SumW())

	curve, ok = a.Efficiencies.Curve(25, "MET", 40)
	require.True(t, ok)
	assert.Equal(2.0, curve.Total().SumW())
	assert.Equal(0.0, curve.Pass().SumW())

	require.Len(t, a.Resolutions, 1)
	h, err := a.Resolutions[0].Map(hist.Summary)
	require.NoError(t, err)
	assert.Equal(int64(2), h.Entries())
	assert.Equal(int64(3), a.Efficiencies.PileupHist().Entries())
}

func writeEvents(t *testing.T, fname string, events []*event.Event) {
	f, err := os.Create(fname)
	require.NoError(t, err)
	defer f.Close()
	w := event.NewWriter(f)
	for _, ev := range events {
		require.NoError(t, w.Write(ev))
	}
	require.NoError(t, w.Close())
}

func TestProcessFiles(t *testing.T) {
	cfg := loadAnalysisConfig(t)
	logger, _ := test.NewNullLogger()
	dir := t.TempDir()

	events := testEvents()
	files := []string{filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.yaml")}
	writeEvents(t, files[0], events[:2])
	writeEvents(t, files[1], events[2:])

	total, err := ProcessFiles(context.Background(), cfg, files, 2, logger)
	require.NoError(t, err)

	single, err := NewAnalysis(cfg, logger)
	require.NoError(t, err)
	for _, ev := range testEvents() {
		single.Process(ev)
	}

	assert.Equal(t, single.Events(), total.Events())
	assert.Equal(t, single.Skipped(), total.Skipped())
	for _, pu := range []float64{3, 12, 25} {
		want, ok := single.Efficiencies.Curve(pu, "MET", 40)
		require.True(t, ok)
		got, ok := total.Efficiencies.Curve(pu, "MET", 40)
		require.True(t, ok)
		assert.Equal(t, want.Total().SumW(), got.Total().SumW(), "pileup %v", pu)
		assert.Equal(t, want.Pass().SumW(), got.Pass().SumW(), "pileup %v", pu)
	}
	want, err := single.Resolutions[0].Map(hist.Summary)
	require.NoError(t, err)
	got, err := total.Resolutions[0].Map(hist.Summary)
	require.NoError(t, err)
	assert.Equal(t, want.Entries(), got.Entries())
}

func TestProcessFilesMissing(t *testing.T) {
	logger, _ := test.NewNullLogger()
	_, err := ProcessFiles(context.Background(), loadAnalysisConfig(t),
		[]string{filepath.Join(t.TempDir(), "nope.yaml")}, 1, logger)
	assert.Error(t, err)
}

func TestProcessFilesCancelled(t *testing.T) {
	cfg := loadAnalysisConfig(t)
	logger, _ := test.NewNullLogger()
	fname := filepath.Join(t.TempDir(), "events.yaml")
	writeEvents(t, fname, testEvents())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ProcessFiles(ctx, cfg, []string{fname}, 1, logger)
	assert.Equal(t, context.Canceled, errors.Cause(err))
}
