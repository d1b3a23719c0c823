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

	"github.com/ctessum/unit"
)

// Demand is a land-demand target for one technology. Exactly one of
// Investment, Capacity, and Area must be set; the other two are
// derived from the technology parameters when the demand is resolved.
type Demand struct {
	Technology Technology
	Investment *unit.Unit // [€]
	Capacity   *unit.Unit // [W]
	Area       *unit.Unit // [m²]
}

// InvestmentDemand returns a demand specified as an investment [€].
func InvestmentDemand(tech Technology, euros float64) Demand {
	return Demand{Technology: tech, Investment: Euros(euros)}
}

// CapacityDemand returns a demand specified as an installed capacity
// [MW].
func CapacityDemand(tech Technology, megawatts float64) Demand {
	return Demand{Technology: tech, Capacity: unit.New(megawatts*1e6, unit.Watt)}
}

// AreaDemand returns a demand specified as a land area [m²].
func AreaDemand(tech Technology, m2 float64) Demand {
	return Demand{Technology: tech, Area: unit.New(m2, unit.Meter2)}
}

// ResolvedDemand is a demand with all three unit representations
// filled in. The three quantities are mutually consistent through the
// technology's specific cost and specific power density.
type ResolvedDemand struct {
	Technology Technology
	Investment *unit.Unit // [€]
	Capacity   *unit.Unit // [W]
	Area       *unit.Unit // [m²]
}

// AreaM2 returns the required land area [m²].
func (d *ResolvedDemand) AreaM2() float64 { return d.Area.Value() }

// Resolve converts the demand into a required land area, deriving the
// two quantities that were not supplied:
//
//	area = capacity / specific_power_density
//	capacity = investment / specific_cost
//	investment = capacity × specific_cost
//
// It returns an InvalidUnitError if zero or more than one of the three
// quantities is set, or if the supplied value is negative.
func (d Demand) Resolve(params *ParamSet) (*ResolvedDemand, error) {
	cost, err := params.SpecificCost(d.Technology)
	if err != nil {
		return nil, err
	}
	density, err := params.SpecificPowerDensity(d.Technology)
	if err != nil {
		return nil, err
	}

	n := 0
	for _, u := range []*unit.Unit{d.Investment, d.Capacity, d.Area} {
		if u != nil {
			n++
		}
	}
	if n == 0 {
		return nil, &InvalidUnitError{d.Technology, "no demand unit supplied"}
	}
	if n > 1 {
		return nil, &InvalidUnitError{d.Technology,
			fmt.Sprintf("%d demand units supplied, want exactly 1", n)}
	}

	r := &ResolvedDemand{Technology: d.Technology}
	switch {
	case d.Investment != nil:
		if d.Investment.Value() < 0 {
			return nil, &InvalidUnitError{d.Technology, "negative investment"}
		}
		r.Investment = d.Investment
		r.Capacity = unit.Div(d.Investment, cost) // € / (€/W) = W
		r.Area = unit.Div(r.Capacity, density)    // W / (W/m²) = m²
	case d.Capacity != nil:
		if d.Capacity.Value() < 0 {
			return nil, &InvalidUnitError{d.Technology, "negative capacity"}
		}
		r.Capacity = d.Capacity
		r.Area = unit.Div(d.Capacity, density)
		r.Investment = unit.Mul(d.Capacity, cost)
	default:
		if d.Area.Value() < 0 {
			return nil, &InvalidUnitError{d.Technology, "negative area"}
		}
		r.Area = d.Area
		r.Capacity = unit.Mul(d.Area, density)
		r.Investment = unit.Mul(r.Capacity, cost)
	}

	if err := r.Area.Check(unit.Meter2); err != nil {
		return nil, fmt.Errorf("solarplants: while resolving %s demand: %v", d.Technology, err)
	}
	if err := r.Capacity.Check(unit.Watt); err != nil {
		return nil, fmt.Errorf("solarplants: while resolving %s demand: %v", d.Technology, err)
	}
	return r, nil
}

// ResolveDemands resolves every demand in ds. Technologies that do not
// appear in ds have no land target and are skipped by the selector.
func ResolveDemands(ds []Demand, params *ParamSet) (map[Technology]*ResolvedDemand, error) {
	out := make(map[Technology]*ResolvedDemand, len(ds))
	for _, d := range ds {
		if _, ok := out[d.Technology]; ok {
			return nil, &InvalidUnitError{d.Technology, "duplicate demand for technology"}
		}
		r, err := d.Resolve(params)
		if err != nil {
			return nil, err
		}
		out[d.Technology] = r
	}
	return out, nil
}
