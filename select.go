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
	"github.com/ctessum/unit"
)

// Draw is one consumption of area from an irradiance bin, in the order
// the selector visited the bins.
type Draw struct {
	Subregion string
	Bin       BinIndex
	Area      float64 // [m²]
}

// SelectionResult is the outcome of land allocation for one
// technology.
type SelectionResult struct {
	Technology Technology

	// Draws lists the bins consumed, in selection order: descending
	// bin index, tie-broken by ascending subregion identifier.
	Draws []Draw

	// Achieved totals. These equal the demanded totals unless the
	// supply was exhausted first.
	Area       *unit.Unit // [m²]
	Capacity   *unit.Unit // [W]
	Investment *unit.Unit // [€]

	// UnderSupplied is set when the eligible land ran out before the
	// technology's area target was met. It is a reported condition,
	// not an error, unless the selector requires full supply.
	UnderSupplied bool
}

// Selector allocates eligible land to technologies in a fixed priority
// order, drawing the highest-irradiance bins first.
type Selector struct {
	// Priority is the technology allocation order. If nil,
	// DefaultPriority is used. Because all technologies share one
	// area pool, earlier technologies shadow later ones on
	// overlapping land.
	Priority []Technology

	// RequireFullSupply turns an under-supplied technology into an
	// InsufficientSupplyError instead of a flagged partial result.
	RequireFullSupply bool
}

// Select allocates land from inv to satisfy each resolved demand.
// Given identical inputs, the returned results are identical: the
// candidate order is fully determined by (bin index desc, subregion
// asc), and technologies are processed in priority order.
func (s *Selector) Select(inv *Inventory, demands map[Technology]*ResolvedDemand,
	params *ParamSet) (map[Technology]*SelectionResult, error) {

	priority := s.Priority
	if priority == nil {
		priority = DefaultPriority
	}

	// Working copy of the remaining area per bin. This pool is shared
	// across all technologies: CSP consumption precedes and therefore
	// shadows PV consumption on the same land.
	remaining := make(map[binKey]float64, len(inv.bins))
	for k, b := range inv.bins {
		remaining[k] = b.Area
	}
	candidates := inv.Bins()

	out := make(map[Technology]*SelectionResult, len(demands))
	for _, tech := range priority {
		demand, ok := demands[tech]
		if !ok {
			continue
		}
		t, err := params.Get(tech)
		if err != nil {
			return nil, err
		}
		res := &SelectionResult{Technology: tech}
		outstanding := demand.AreaM2()
		for _, b := range candidates {
			if outstanding <= 0 {
				break
			}
			// A bin with no resource series is never a candidate:
			// its output could not be simulated. SetupInventory
			// reports such bins when the pipeline is assembled.
			if b.Resource == nil || b.Resource.AnnualGHI() < t.MinGHI {
				continue
			}
			k := binKey{b.Subregion, b.Index}
			avail := remaining[k]
			if avail <= 0 {
				continue
			}
			take := avail
			if take > outstanding {
				take = outstanding
			}
			remaining[k] = avail - take
			outstanding -= take
			res.Draws = append(res.Draws, Draw{Subregion: b.Subregion, Bin: b.Index, Area: take})
		}

		achieved := demand.AreaM2() - outstanding
		res.Area = unit.New(achieved, unit.Meter2)
		density, err := params.SpecificPowerDensity(tech)
		if err != nil {
			return nil, err
		}
		cost, err := params.SpecificCost(tech)
		if err != nil {
			return nil, err
		}
		res.Capacity = unit.Mul(res.Area, density)
		res.Investment = unit.Mul(res.Capacity, cost)
		if outstanding > 0 {
			res.UnderSupplied = true
			if s.RequireFullSupply {
				return nil, &InsufficientSupplyError{
					Technology: tech,
					Demanded:   demand.AreaM2(),
					Achieved:   achieved,
				}
			}
		}
		out[tech] = res
	}
	return out, nil
}
