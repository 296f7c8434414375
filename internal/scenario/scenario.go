// Package scenario builds water-surface elevation scenarios and drives the
// flood pipeline across them: the standard storm-surge by sea-level-rise
// grid, a YAML scenario file, or an ad-hoc elevation list.
package scenario

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/coastal-group/tidegate-cli/internal/errs"
	"github.com/coastal-group/tidegate-cli/internal/units"
)

// SurgeOrder is the fixed evaluation order of the storm-surge categories
// within one sea-level-rise step.
var SurgeOrder = []string{"MHHW", "10yr", "50yr", "100yr"}

// Scenario is one water-surface elevation to evaluate. Standard scenarios
// carry the surge category and SLR step they were derived from; custom
// scenarios leave SurgeName empty.
type Scenario struct {
	Label           string
	SurgeName       string
	SLRFeet         int
	ElevationFeet   float64
	ElevationMeters float64
}

// Standard builds the full scenario grid: every sea-level-rise step crossed
// with every surge category, SLR ascending on the outside and surges in
// SurgeOrder on the inside. Every category in SurgeOrder must have an
// elevation in the table.
func Standard(surges map[string]float64, slrSteps []int) ([]Scenario, error) {
	for _, name := range SurgeOrder {
		if _, ok := surges[name]; !ok {
			return nil, errs.Configurationf("scenario: surge category %q has no elevation", name)
		}
	}

	steps := make([]int, len(slrSteps))
	copy(steps, slrSteps)
	sort.Ints(steps)

	out := make([]Scenario, 0, len(steps)*len(SurgeOrder))
	for _, slr := range steps {
		for _, name := range SurgeOrder {
			ft := surges[name] + float64(slr)
			out = append(out, Scenario{
				Label:           fmt.Sprintf("%s_slr%d", name, slr),
				SurgeName:       name,
				SLRFeet:         slr,
				ElevationFeet:   ft,
				ElevationMeters: units.FeetToMeters(ft),
			})
		}
	}
	return out, nil
}

// fileEntry is one record of a YAML scenario file.
type fileEntry struct {
	Label       string  `yaml:"label"`
	ElevationFt float64 `yaml:"elevation_ft"`
}

// FromFile reads custom scenarios from a YAML file: a list of
// {label, elevation_ft} entries, evaluated in file order.
func FromFile(path string) ([]Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errs.NotFoundError{Kind: "scenario file", Name: path}
		}
		return nil, eris.Wrapf(err, "scenario: read %s", path)
	}

	var entries []fileEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, eris.Wrapf(err, "scenario: parse %s", path)
	}
	if len(entries) == 0 {
		return nil, errs.Configurationf("scenario: %s defines no scenarios", path)
	}

	out := make([]Scenario, 0, len(entries))
	for _, e := range entries {
		if err := units.CheckElevation(e.ElevationFt); err != nil {
			return nil, err
		}
		label := e.Label
		if label == "" {
			label = elevationLabel(e.ElevationFt)
		}
		out = append(out, Scenario{
			Label:           label,
			ElevationFeet:   e.ElevationFt,
			ElevationMeters: units.FeetToMeters(e.ElevationFt),
		})
	}
	return out, nil
}

// FromElevations builds custom scenarios from an elevation list in feet,
// evaluated in the given order.
func FromElevations(feet []float64) ([]Scenario, error) {
	if len(feet) == 0 {
		return nil, errs.Configurationf("scenario: no elevations given")
	}
	out := make([]Scenario, 0, len(feet))
	for _, ft := range feet {
		if err := units.CheckElevation(ft); err != nil {
			return nil, err
		}
		out = append(out, Scenario{
			Label:           elevationLabel(ft),
			ElevationFeet:   ft,
			ElevationMeters: units.FeetToMeters(ft),
		})
	}
	return out, nil
}

func elevationLabel(ft float64) string {
	return strconv.FormatFloat(ft, 'f', -1, 64) + "ft"
}
