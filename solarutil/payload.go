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

package solarutil

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/solarplants"
)

// Payload is the JSON run request. Each technology family carries at
// most one demand quantity: a land area [m²], an installed power [MW],
// or an investment [€]. The remaining fields override the technology
// parameter defaults.
//
// Pointer fields distinguish absent or null properties from explicit
// zeros.
type Payload struct {
	// NUTSID is the identifier of the coarse region to be modeled.
	NUTSID string `json:"nutsid"`

	// SlopeAngle is the maximum terrain slope for eligible land
	// [degrees]. Zero disables the slope filter.
	SlopeAngle *float64 `json:"slope_angle"`

	// Demand quantities for the solar-thermal family.
	AreaTotalThermal *float64 `json:"area_total_thermal"` // [m²]
	PowerThermal     *float64 `json:"power_thermal"`      // [MW]
	CapexThermal     *float64 `json:"capex_thermal"`      // [€]

	// Demand quantities for the photovoltaic family.
	AreaTotalPV *float64 `json:"area_total_pv"` // [m²]
	PowerPV     *float64 `json:"power_pv"`      // [MW]
	CapexPV     *float64 `json:"capex_pv"`      // [€]

	SystemCostThermal *float64 `json:"system_cost_thermal"` // [€/W]
	SystemCostPV      *float64 `json:"system_cost_pv"`      // [€/W]

	// Loss is the total PV system loss [%].
	Loss *float64 `json:"loss"`

	EfficiencyThermal *float64 `json:"efficiency_thermal"` // [%]
	EfficiencyOptical *float64 `json:"efficiency_optical"` // [%]
	Aperture          *float64 `json:"aperture"`           // [%]

	Tilt    *float64 `json:"tilt"`    // [degrees]
	Azimuth *float64 `json:"azimuth"` // [degrees]

	// TrackingPercentage is the share of the PV demand assigned to
	// single-axis tracking systems [%]; the rest is fixed mounting.
	TrackingPercentage *float64 `json:"tracking_percentage"`

	OpexThermal *float64 `json:"opex_thermal"` // [€/MW/yr]
	OpexPV      *float64 `json:"opex_pv"`      // [€/MW/yr]

	MinGHIThermal *float64 `json:"min_ghi_thermal"` // [kWh/m²/yr]
	MinGHIPV      *float64 `json:"min_ghi_pv"`      // [kWh/m²/yr]

	LandUseThermal *float64 `json:"land_use_thermal"` // [W/m²]
	LandUsePV      *float64 `json:"land_use_pv"`      // [W/m²]

	// ConvertCoord selects whether dataset centroids need conversion
	// from the dataset projection to long/lat (1) or are already in
	// long/lat (0).
	ConvertCoord *int `json:"convert_coord"`

	// Year is the meteorological year of the resource dataset.
	Year *int `json:"pvgis_year"`
}

// LoadPayload reads, parses, and validates the run request at path.
func LoadPayload(path string, allowedRegions []string) (*Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("solarutil: while opening payload: %v", err)
	}
	defer f.Close()
	p := new(Payload)
	if err := json.NewDecoder(f).Decode(p); err != nil {
		return nil, fmt.Errorf("solarutil: while parsing payload: %v", err)
	}
	if err := p.Validate(allowedRegions); err != nil {
		return nil, err
	}
	return p, nil
}

// rangeCheck describes the admissible interval of one required payload
// property and the value substituted when the property lies outside it.
type rangeCheck struct {
	name     string
	val      *float64
	min, max float64
	def      float64
}

func (p *Payload) rangeChecks() []rangeCheck {
	return []rangeCheck{
		{"slope_angle", p.SlopeAngle, 0, 360, 0},
		{"system_cost_thermal", p.SystemCostThermal, 1, 10, 4},
		{"system_cost_pv", p.SystemCostPV, 0.2, 1, 0.5},
		{"loss", p.Loss, 8, 20, 14},
		{"efficiency_thermal", p.EfficiencyThermal, 25, 65, 45},
		{"efficiency_optical", p.EfficiencyOptical, 45, 85, 65},
		{"aperture", p.Aperture, 25, 75, 50},
		{"tilt", p.Tilt, 0, 90, 30},
		{"azimuth", p.Azimuth, 0, 360, 180},
		{"tracking_percentage", p.TrackingPercentage, 0, 100, 60},
		{"opex_thermal", p.OpexThermal, 0, 4.0e4, 2.0e4},
		{"opex_pv", p.OpexPV, 0, 3.0e4, 1.5e4},
		{"min_ghi_thermal", p.MinGHIThermal, 1500, 2500, 2000},
		{"min_ghi_pv", p.MinGHIPV, 500, 2000, 1000},
		{"land_use_thermal", p.LandUseThermal, 25, 100, 50},
		{"land_use_pv", p.LandUsePV, 50, 200, 100},
	}
}

// demandLimits bound the optional demand quantities per unit kind.
var demandLimits = map[string]float64{
	"area":  1e10, // [m²]
	"power": 1e12, // [MW]
	"capex": 5e11, // [€]
}

// Validate checks the payload against the admissible ranges,
// substituting documented defaults for out-of-range values. Missing
// required properties, an unknown region, or more than one demand
// quantity per technology family are errors.
func (p *Payload) Validate(allowedRegions []string) error {
	p.NUTSID = strings.ToUpper(strings.TrimSpace(p.NUTSID))
	if p.NUTSID == "" {
		return fmt.Errorf("solarutil: payload property nutsid is missing or null")
	}
	var regionOK bool
	for _, r := range allowedRegions {
		if strings.ToUpper(strings.TrimSpace(r)) == p.NUTSID {
			regionOK = true
			break
		}
	}
	if !regionOK {
		return fmt.Errorf("solarutil: region %s is not in the allowed region list %v",
			p.NUTSID, allowedRegions)
	}

	for _, c := range p.rangeChecks() {
		if c.val == nil {
			return fmt.Errorf("solarutil: payload property %s is missing or null", c.name)
		}
		if *c.val < c.min || *c.val > c.max {
			logrus.WithFields(logrus.Fields{
				"property": c.name,
				"value":    *c.val,
				"range":    fmt.Sprintf("[%g, %g]", c.min, c.max),
			}).Warnf("out-of-range payload property reset to default %g", c.def)
			*c.val = c.def
		}
	}

	if err := checkDemandTriple("thermal", p.AreaTotalThermal, p.PowerThermal, p.CapexThermal); err != nil {
		return err
	}
	if err := checkDemandTriple("pv", p.AreaTotalPV, p.PowerPV, p.CapexPV); err != nil {
		return err
	}

	if p.ConvertCoord == nil {
		return fmt.Errorf("solarutil: payload property convert_coord is missing or null")
	}
	if *p.ConvertCoord != 0 && *p.ConvertCoord != 1 {
		return fmt.Errorf("solarutil: payload property convert_coord must be 0 or 1, have %d",
			*p.ConvertCoord)
	}
	if p.Year == nil {
		return fmt.Errorf("solarutil: payload property pvgis_year is missing or null")
	}
	if *p.Year < 1900 || *p.Year > 2020 {
		return fmt.Errorf("solarutil: payload property pvgis_year must be in [1900, 2020], have %d",
			*p.Year)
	}
	return nil
}

// checkDemandTriple enforces that at most one of the family's demand
// quantities is given and that the given one is within its bounds.
// Negative or over-limit quantities reset to zero.
func checkDemandTriple(family string, area, power, capex *float64) error {
	var n int
	for _, q := range []*float64{area, power, capex} {
		if q != nil {
			n++
		}
	}
	if n > 1 {
		return fmt.Errorf("solarutil: %s demand must give exactly one of area, power, or investment; have %d",
			family, n)
	}
	for kind, q := range map[string]*float64{"area": area, "power": power, "capex": capex} {
		if q == nil {
			continue
		}
		if *q < 0 || *q > demandLimits[kind] {
			logrus.WithFields(logrus.Fields{
				"property": family + " " + kind,
				"value":    *q,
			}).Warn("out-of-range demand quantity reset to 0")
			*q = 0
		}
	}
	return nil
}

// Region returns the coarse region the payload addresses.
func (p *Payload) Region() string { return p.NUTSID }

// Filter returns the land-eligibility filter the payload implies.
func (p *Payload) Filter() *solarplants.EligibilityFilter {
	return &solarplants.EligibilityFilter{MaxSlope: *p.SlopeAngle}
}

// transposition estimates the ratio of plane-of-array to global
// horizontal irradiance for a fixed array at the given mounting angles.
// South facing is azimuth 180°.
func transposition(tiltDeg, azimuthDeg float64) float64 {
	tilt := tiltDeg * math.Pi / 180
	az := (azimuthDeg - 180) * math.Pi / 180
	gain := 0.3 * math.Sin(tilt) * math.Cos(az)
	if gain < 0 {
		gain = 0
	}
	return 1 + gain
}

func ptr(v float64) *float64 { return &v }

// Overrides translates the payload's parameter properties into
// technology parameter overrides. The payload's pointer fields carry
// through, so an explicit zero (for example a zero operating-cost
// rate) overrides the default instead of being mistaken for "unset".
func (p *Payload) Overrides() []solarplants.Override {
	return []solarplants.Override{
		{
			Technology:        solarplants.CSPParabolicTrough,
			PowerDensity:      p.LandUseThermal,
			SystemCost:        p.SystemCostThermal,
			OpexRate:          p.OpexThermal,
			MinGHI:            p.MinGHIThermal,
			OpticalEfficiency: ptr(*p.EfficiencyOptical / 100),
			ThermalEfficiency: ptr(*p.EfficiencyThermal / 100),
			ApertureFraction:  ptr(*p.Aperture / 100),
		},
		{
			Technology:       solarplants.PVFixed,
			PowerDensity:     p.LandUsePV,
			SystemCost:       p.SystemCostPV,
			OpexRate:         p.OpexPV,
			MinGHI:           p.MinGHIPV,
			SystemEfficiency: ptr(1 - *p.Loss/100),
			TiltFactor:       ptr(transposition(*p.Tilt, *p.Azimuth)),
		},
		{
			Technology:       solarplants.PVSingleAxisTracking,
			PowerDensity:     p.LandUsePV,
			SystemCost:       p.SystemCostPV,
			OpexRate:         p.OpexPV,
			MinGHI:           p.MinGHIPV,
			SystemEfficiency: ptr(1 - *p.Loss/100),
		},
	}
}

// Demands translates the payload's demand quantities into per-technology
// demand targets. The photovoltaic quantity is split between tracking
// and fixed mounting by the tracking percentage; all demand quantities
// are linear in area, so the split applies to whichever unit was given.
func (p *Payload) Demands() []solarplants.Demand {
	var ds []solarplants.Demand
	ds = append(ds, familyDemand(solarplants.CSPParabolicTrough, 1,
		p.AreaTotalThermal, p.PowerThermal, p.CapexThermal))

	share := *p.TrackingPercentage / 100
	ds = append(ds,
		familyDemand(solarplants.PVSingleAxisTracking, share,
			p.AreaTotalPV, p.PowerPV, p.CapexPV),
		familyDemand(solarplants.PVFixed, 1-share,
			p.AreaTotalPV, p.PowerPV, p.CapexPV))
	return ds
}

func familyDemand(tech solarplants.Technology, share float64,
	area, power, capex *float64) solarplants.Demand {
	switch {
	case power != nil:
		return solarplants.CapacityDemand(tech, *power*share)
	case capex != nil:
		return solarplants.InvestmentDemand(tech, *capex*share)
	case area != nil:
		return solarplants.AreaDemand(tech, *area*share)
	default:
		// No quantity given: the family's target defaults to zero area.
		return solarplants.AreaDemand(tech, 0)
	}
}
