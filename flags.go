package turnon

import (
	"fmt"
	"strconv"
	"strings"
)

// FloatArrayFlags collects repeated or comma-separated numeric flags. The
// first Set call replaces any default values.
//
//	pileup := turnon.FloatArrayFlags{Array: []float64{0, 13, 20, 999}}
//	flag.Var(&pileup, "pu", "pileup bin edges")
type FloatArrayFlags struct {
	Array   []float64
	beenSet bool
}

func (f *FloatArrayFlags) Set(valueStr string) error {
	var values []float64
	for _, field := range strings.Split(valueStr, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return err
		}
		values = append(values, value)
	}

	if !f.beenSet {
		f.beenSet = true
		f.Array = nil
	}
	f.Array = append(f.Array, values...)
	return nil
}

func (f *FloatArrayFlags) String() string {
	return fmt.Sprint(f.Array)
}

// StringArrayFlags collects repeated string flags.
type StringArrayFlags []string

func (f *StringArrayFlags) Set(value string) error {
	*f = append(*f, value)
	return nil
}

func (f *StringArrayFlags) String() string {
	return strings.Join(*f, ",")
}

// Has reports whether s was given, or whether no value was given at all.
func (f StringArrayFlags) Has(s string) bool {
	if len(f) == 0 {
		return true
	}
	for _, v := range f {
		if v == s {
			return true
		}
	}
	return false
}
