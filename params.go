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

// Technology identifies one of the modeled plant technologies.
type Technology string

// The modeled technologies. The CSP family produces thermal energy
// from the solar field only; the PV family produces electrical energy.
const (
	CSPParabolicTrough   Technology = "csp_parabolic_trough"
	CSPPowerTower        Technology = "csp_power_tower"
	PVFixed              Technology = "pv_fixed"
	PVSingleAxisTracking Technology = "pv_single_axis_tracking"
)

// IsCSP reports whether t belongs to the concentrating solar family.
func (t Technology) IsCSP() bool {
	return t == CSPParabolicTrough || t == CSPPowerTower
}

// DefaultPriority is the order in which technologies are allocated
// land. CSP technologies come before PV technologies: land claimed by
// a CSP allocation is unavailable to the PV passes that follow.
var DefaultPriority = []Technology{
	CSPParabolicTrough,
	CSPPowerTower,
	PVFixed,
	PVSingleAxisTracking,
}

// euroDim is the base dimension used for money amounts.
var euroDim = unit.NewDimension("EUR")

// Euro is the dimension set for money amounts [€].
var Euro = unit.Dimensions{euroDim: 1}

// Euros returns a money amount [€].
func Euros(v float64) *unit.Unit { return unit.New(v, Euro) }

// EuroPerWatt returns a specific cost [€/W].
func EuroPerWatt(v float64) *unit.Unit {
	return unit.Div(unit.New(v, Euro), unit.New(1, unit.Watt))
}

// WattPerMeter2 returns a specific power density [W/m²].
func WattPerMeter2(v float64) *unit.Unit {
	return unit.Div(unit.New(v, unit.Watt), unit.New(1, unit.Meter2))
}

// TechParams holds the resolved financial and physical parameters for
// one technology. A TechParams value is immutable once resolved for a
// run.
type TechParams struct {
	Technology Technology

	PowerDensity float64 `desc:"Specific power density" units:"W/m²"`
	SystemCost   float64 `desc:"Specific system cost" units:"€/W"`
	OpexRate     float64 `desc:"Annual operating cost rate" units:"€/MW/yr"`
	MinGHI       float64 `desc:"Minimum annual global irradiance for eligible land" units:"kWh/m²/yr"`

	// CSP solar-field parameters.
	OpticalEfficiency float64 `desc:"Fraction of incoming direct radiation captured by the collectors" units:"fraction"`
	ThermalEfficiency float64 `desc:"Collector thermal efficiency" units:"fraction"`
	ApertureFraction  float64 `desc:"Aperture area as a fraction of solar-field land area" units:"fraction"`

	// PV array parameters.
	SystemEfficiency float64 `desc:"System efficiency net of inverter and wiring losses" units:"fraction"`
	ReflectionLoss   float64 `desc:"Shallow-angle reflection loss" units:"fraction"`
	SpectralLoss     float64 `desc:"Spectral-shift loss" units:"fraction"`
	TempCoefficient  float64 `desc:"Power temperature coefficient" units:"1/K"`
	NOCT             float64 `desc:"Nominal operating cell temperature" units:"°C"`
	TiltFactor       float64 `desc:"Plane-of-array to global-horizontal ratio for fixed mounting" units:"fraction"`
	TrackingGain     float64 `desc:"Plane-of-array to global-horizontal ratio for single-axis tracking" units:"fraction"`
}

// defaultParams are the technology defaults. User-supplied overrides
// are merged on top of these by ResolveParams.
var defaultParams = map[Technology]TechParams{
	CSPParabolicTrough: {
		Technology:        CSPParabolicTrough,
		PowerDensity:      25,    // W/m²
		SystemCost:        4.0,   // €/W
		OpexRate:          2.0e4, // €/MW/yr
		MinGHI:            2000,  // kWh/m²/yr
		OpticalEfficiency: 0.65,
		ThermalEfficiency: 0.45,
		ApertureFraction:  0.5,
	},
	CSPPowerTower: {
		Technology:        CSPPowerTower,
		PowerDensity:      20,
		SystemCost:        4.5,
		OpexRate:          2.0e4,
		MinGHI:            2000,
		OpticalEfficiency: 0.60,
		ThermalEfficiency: 0.40,
		ApertureFraction:  0.4,
	},
	PVFixed: {
		Technology:       PVFixed,
		PowerDensity:     50,
		SystemCost:       0.5,
		OpexRate:         1.0e4,
		MinGHI:           1000,
		SystemEfficiency: 0.86, // 14% system loss
		ReflectionLoss:   0.03,
		SpectralLoss:     0.01,
		TempCoefficient:  -0.0040,
		NOCT:             45,
		TiltFactor:       1.15,
	},
	PVSingleAxisTracking: {
		Technology:       PVSingleAxisTracking,
		PowerDensity:     40,
		SystemCost:       0.6,
		OpexRate:         1.2e4,
		MinGHI:           1000,
		SystemEfficiency: 0.86,
		ReflectionLoss:   0.03,
		SpectralLoss:     0.01,
		TempCoefficient:  -0.0040,
		NOCT:             45,
		TrackingGain:     1.35,
	},
}

// ParamSet holds the resolved parameters for every technology in a
// run.
type ParamSet struct {
	byTech map[Technology]TechParams
}

// Override selectively replaces the default parameters of one
// technology. A nil field keeps the default; a non-nil field replaces
// it, including an explicit zero (a zero operating-cost rate is a
// legitimate override).
type Override struct {
	Technology Technology

	PowerDensity *float64
	SystemCost   *float64
	OpexRate     *float64
	MinGHI       *float64

	OpticalEfficiency *float64
	ThermalEfficiency *float64
	ApertureFraction  *float64

	SystemEfficiency *float64
	ReflectionLoss   *float64
	SpectralLoss     *float64
	TempCoefficient  *float64
	NOCT             *float64
	TiltFactor       *float64
	TrackingGain     *float64
}

// ResolveParams applies the given overrides to the technology defaults
// and returns the resulting immutable parameter set. An override must
// name its Technology.
func ResolveParams(overrides ...Override) (*ParamSet, error) {
	p := &ParamSet{byTech: make(map[Technology]TechParams, len(defaultParams))}
	for tech, d := range defaultParams {
		p.byTech[tech] = d
	}
	for _, o := range overrides {
		d, ok := p.byTech[o.Technology]
		if !ok {
			return nil, fmt.Errorf("solarplants: unknown technology %q in parameter override", o.Technology)
		}
		p.byTech[o.Technology] = applyOverride(d, o)
	}
	return p, nil
}

// applyOverride overlays the non-nil fields of o onto d.
func applyOverride(d TechParams, o Override) TechParams {
	r := d
	for _, f := range []struct {
		src *float64
		dst *float64
	}{
		{o.PowerDensity, &r.PowerDensity},
		{o.SystemCost, &r.SystemCost},
		{o.OpexRate, &r.OpexRate},
		{o.MinGHI, &r.MinGHI},
		{o.OpticalEfficiency, &r.OpticalEfficiency},
		{o.ThermalEfficiency, &r.ThermalEfficiency},
		{o.ApertureFraction, &r.ApertureFraction},
		{o.SystemEfficiency, &r.SystemEfficiency},
		{o.ReflectionLoss, &r.ReflectionLoss},
		{o.SpectralLoss, &r.SpectralLoss},
		{o.TempCoefficient, &r.TempCoefficient},
		{o.NOCT, &r.NOCT},
		{o.TiltFactor, &r.TiltFactor},
		{o.TrackingGain, &r.TrackingGain},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	return r
}

// Get returns the resolved parameters for tech.
func (p *ParamSet) Get(tech Technology) (TechParams, error) {
	t, ok := p.byTech[tech]
	if !ok {
		return TechParams{}, fmt.Errorf("solarplants: no parameters for technology %q", tech)
	}
	return t, nil
}

// SpecificCost returns tech's specific cost as a dimensioned
// quantity [€/W].
func (p *ParamSet) SpecificCost(tech Technology) (*unit.Unit, error) {
	t, err := p.Get(tech)
	if err != nil {
		return nil, err
	}
	return EuroPerWatt(t.SystemCost), nil
}

// SpecificPowerDensity returns tech's specific power density as a
// dimensioned quantity [W/m²].
func (p *ParamSet) SpecificPowerDensity(tech Technology) (*unit.Unit, error) {
	t, err := p.Get(tech)
	if err != nil {
		return nil, err
	}
	return WattPerMeter2(t.PowerDensity), nil
}
