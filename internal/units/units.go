// Package units converts user-facing elevations (feet above mean sea level)
// to the DEM's native vertical unit (meters). No rounding anywhere; full
// float64 precision is carried through the pipeline.
package units

import (
	"math"

	"github.com/coastal-group/tidegate-cli/internal/errs"
)

// MetersPerFoot is the exact international foot conversion factor.
const MetersPerFoot = 0.3048

// FeetToMeters converts an elevation in feet to meters.
func FeetToMeters(ft float64) float64 { return ft * MetersPerFoot }

// MetersToFeet converts an elevation in meters back to feet for user-facing
// attribute fields.
func MetersToFeet(m float64) float64 { return m / MetersPerFoot }

// CheckElevation rejects NaN and infinite elevations before they reach the
// raster mask.
func CheckElevation(ft float64) error {
	if math.IsNaN(ft) || math.IsInf(ft, 0) {
		return errs.Configurationf("elevation %v is not a finite number", ft)
	}
	return nil
}
