package turnon

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloatArrayFlags(t *testing.T) {
	pu := FloatArrayFlags{Array: []float64{0, 13, 20, 999}}
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Var(&pu, "pu", "pileup bins")

	require.NoError(t, fs.Parse([]string{"-pu", "0,10", "-pu", "20", "-pu", " 30 , 999"}))
	assert.Equal(t, []float64{0, 10, 20, 30, 999}, pu.Array)
	assert.Equal(t, "[0 10 20 30 999]", pu.String())

	assert.Error(t, pu.Set("ten"))
}

func TestFloatArrayFlagsDefault(t *testing.T) {
	pu := FloatArrayFlags{Array: []float64{0, 13}}
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Var(&pu, "pu", "pileup bins")
	require.NoError(t, fs.Parse(nil))
	assert.Equal(t, []float64{0, 13}, pu.Array)
}

func TestStringArrayFlags(t *testing.T) {
	var vars StringArrayFlags
	assert.True(t, vars.Has("JetPt"), "empty selects everything")

	require.NoError(t, vars.Set("JetPt"))
	require.NoError(t, vars.Set("MET"))
	assert.True(t, vars.Has("MET"))
	assert.False(t, vars.Has("HT"))
	assert.Equal(t, "JetPt,MET", vars.String())
}
