/*
Copyright © 2025 the SolarPlants authors.
This file is part of SolarPlants.

SolarPlants is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

SolarPlants is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with SolarPlants.  If not, see <http://www.gnu.org/licenses/>.
*/

package solarplants

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// RegionResults holds the output of a run for one coarse region: the
// unaggregated per-subregion profiles, the per-technology coarse
// totals, the selection metadata, and the annual operational
// expenditure.
type RegionResults struct {
	Region string
	Window Window

	// Profiles are the per-(technology, subregion) hourly series, in
	// technology priority order and ascending subregion order.
	Profiles []*GenerationProfile

	// Total is the coarse-region hourly series per technology. Each
	// hour is the exact sum of the fine-subregion values for that
	// hour; there is no independent recomputation path.
	Total map[Technology][]float64

	// TotalEnergy is the energy generated over the window per
	// technology [MWh].
	TotalEnergy map[Technology]float64

	// AnnualOPEX is the yearly operational expenditure per
	// technology [€/yr].
	AnnualOPEX map[Technology]float64

	// Selection is the land-allocation metadata per technology.
	Selection map[Technology]*SelectionResult
}

// Aggregate sums the fine-subregion profiles into coarse-region series
// and computes per-technology totals and annual operational
// expenditure. The expenditure is the technology's operating-cost rate
// applied to the installed capacity achieved by the selection.
func Aggregate(region string, w Window, profiles []*GenerationProfile,
	sel map[Technology]*SelectionResult, params *ParamSet) (*RegionResults, error) {

	n := w.Hours()
	r := &RegionResults{
		Region:      region,
		Window:      w,
		Profiles:    profiles,
		Total:       make(map[Technology][]float64),
		TotalEnergy: make(map[Technology]float64),
		AnnualOPEX:  make(map[Technology]float64),
		Selection:   sel,
	}
	for _, p := range profiles {
		if len(p.Energy) != n {
			return nil, fmt.Errorf("solarplants: profile for %s in %s has %d hours, window has %d",
				p.Technology, p.Subregion, len(p.Energy), n)
		}
		tot, ok := r.Total[p.Technology]
		if !ok {
			tot = make([]float64, n)
			r.Total[p.Technology] = tot
		}
		floats.Add(tot, p.Energy)
	}
	for tech, tot := range r.Total {
		r.TotalEnergy[tech] = floats.Sum(tot)
	}
	for tech, s := range sel {
		t, err := params.Get(tech)
		if err != nil {
			return nil, err
		}
		capacityMW := s.Capacity.Value() / 1e6
		r.AnnualOPEX[tech] = capacityMW * t.OpexRate
	}
	return r, nil
}

// SubregionTotal returns the hourly series of one technology in one
// fine subregion, or nil if the technology generated nothing there.
func (r *RegionResults) SubregionTotal(tech Technology, subregion string) []float64 {
	for _, p := range r.Profiles {
		if p.Technology == tech && p.Subregion == subregion {
			return p.Energy
		}
	}
	return nil
}
