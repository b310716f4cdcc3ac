package services

import (
	"fmt"
	"sort"

	"curve-digitizer/internal/algorithms"
	"curve-digitizer/internal/models"
)

// ApplyOverrides lets the algorithm seed its parameters from axes and then
// sets each override by its persisted key. Keys the algorithm does not list are
// rejected before any override is applied.
func ApplyOverrides(algo algorithms.Algorithm, axes models.AxisCalibration, overrides map[string]float64) ([]algorithms.Parameter, error) {
	params := algo.ListParameters(axes)

	index := make(map[string]int, len(params))
	for i, p := range params {
		index[p.Key] = i
	}

	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		if _, ok := index[key]; !ok {
			return nil, fmt.Errorf("%w: unknown parameter key %q for %s", algorithms.ErrInvalidParameter, key, algo.GetName())
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := algo.SetParameter(index[key], overrides[key]); err != nil {
			return nil, err
		}
	}

	// A nil calibration lists the stored values without seeding them again.
	return algo.ListParameters(nil), nil
}
