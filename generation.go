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
	"sort"
	"time"
)

// Window is the requested simulation time span. Both bounds are
// inclusive and must fall on whole hours; a window of a single hour
// has Hours() == 1.
type Window struct {
	Start, End time.Time
}

// NewWindow validates and returns a simulation window.
func NewWindow(start, end time.Time) (Window, error) {
	if start.Truncate(time.Hour) != start || end.Truncate(time.Hour) != end {
		return Window{}, fmt.Errorf("solarplants: window bounds must fall on whole hours: [%v, %v]", start, end)
	}
	if end.Before(start) {
		return Window{}, fmt.Errorf("solarplants: window end %v is before start %v", end, start)
	}
	return Window{Start: start, End: end}, nil
}

// Hours returns the number of hourly values in the window, inclusive
// of both bounds.
func (w Window) Hours() int {
	return int(w.End.Sub(w.Start).Hours()) + 1
}

// Times returns the timestamp of every hour in the window.
func (w Window) Times() []time.Time {
	n := w.Hours()
	out := make([]time.Time, n)
	for i := 0; i < n; i++ {
		out[i] = w.Start.Add(time.Duration(i) * time.Hour)
	}
	return out
}

// GenerationProfile is the hourly energy produced by one technology in
// one fine subregion over the simulation window. CSP values are
// solar-field thermal energy; PV values are electrical energy.
type GenerationProfile struct {
	Technology Technology
	Subregion  string
	Window     Window
	Energy     []float64 `desc:"Hourly generated energy" units:"MWh"`
}

// Simulator produces hourly generation series for selected land.
type Simulator struct {
	Params *ParamSet
	Window Window
}

// Simulate runs the technology-specific generation model over every
// draw of every selection result and returns one profile per
// (technology, fine subregion), in technology priority order and
// ascending subregion order within a technology.
//
// A draw whose resource series is absent or does not cover the window
// is excluded from the output with a warning on msgLog (which may be
// nil); it is never zero-filled. If every draw of a technology is
// excluded, the run fails with the MissingResourceDataError of the
// first excluded draw.
func (sim *Simulator) Simulate(inv *Inventory, sel map[Technology]*SelectionResult,
	msgLog chan string) ([]*GenerationProfile, error) {

	n := sim.Window.Hours()
	var out []*GenerationProfile
	for _, tech := range DefaultPriority {
		res, ok := sel[tech]
		if !ok {
			continue
		}
		t, err := sim.Params.Get(tech)
		if err != nil {
			return nil, err
		}

		bySubregion := make(map[string]*GenerationProfile)
		var order []string
		var excluded int
		var firstErr *MissingResourceDataError
		for _, d := range res.Draws {
			bin, ok := inv.Bin(d.Subregion, d.Bin)
			var hourly []float64
			if ok {
				hourly, err = sim.simulateDraw(t, d, bin.Resource)
			} else {
				err = fmt.Errorf("bin is not in the inventory")
			}
			if err != nil {
				merr := &MissingResourceDataError{Subregion: d.Subregion, Bin: d.Bin, Reason: err.Error()}
				if firstErr == nil {
					firstErr = merr
				}
				excluded++
				if msgLog != nil {
					msgLog <- fmt.Sprintf("excluding %g m² of %s land: %v", d.Area, tech, merr)
				}
				continue
			}
			p, ok := bySubregion[d.Subregion]
			if !ok {
				p = &GenerationProfile{
					Technology: tech,
					Subregion:  d.Subregion,
					Window:     sim.Window,
					Energy:     make([]float64, n),
				}
				bySubregion[d.Subregion] = p
				order = append(order, d.Subregion)
			}
			for h, e := range hourly {
				p.Energy[h] += e
			}
		}
		if excluded > 0 && excluded == len(res.Draws) {
			return nil, firstErr
		}
		// Draws are ordered by bin quality; re-sort profiles by
		// subregion for output stability.
		sort.Strings(order)
		for _, sub := range order {
			out = append(out, bySubregion[sub])
		}
	}
	return out, nil
}

// simulateDraw runs the technology model for a single draw.
func (sim *Simulator) simulateDraw(t TechParams, d Draw, res *ResourceSeries) ([]float64, error) {
	n := sim.Window.Hours()
	if res == nil {
		return nil, fmt.Errorf("no resource series")
	}
	offset := int(sim.Window.Start.Sub(res.Start).Hours())
	if t.Technology.IsCSP() {
		dni, err := resourceSlice(res.DNI, "DNI", offset, n)
		if err != nil {
			return nil, err
		}
		return cspThermal(t, d.Area, dni), nil
	}
	ghi, err := resourceSlice(res.GHI, "GHI", offset, n)
	if err != nil {
		return nil, err
	}
	temp, err := resourceSlice(res.AmbientTemp, "ambient temperature", offset, n)
	if err != nil {
		return nil, err
	}
	return pvElectrical(t, d.Area, ghi, temp), nil
}

// cspThermal returns the hourly solar-field thermal energy [MWh] for
// area m² of CSP collectors receiving the given direct normal
// irradiance [W/m²]. Storage and power-block conversion are not
// modeled.
func cspThermal(t TechParams, area float64, dni []float64) []float64 {
	aperture := area * t.ApertureFraction // [m²]
	out := make([]float64, len(dni))
	for h, r := range dni {
		out[h] = r * aperture * t.OpticalEfficiency * t.ThermalEfficiency / 1e6
	}
	return out
}

// pvElectrical returns the hourly electrical energy [MWh] for area m²
// of PV modules. The loss terms are multiplicative fractions applied
// in a fixed order: shallow-angle reflection, spectral shift, then
// temperature derating. Module temperature comes from the standard
// simplified thermal model driven by NOCT.
func pvElectrical(t TechParams, area float64, ghi, ambientTemp []float64) []float64 {
	geomFactor := t.TiltFactor
	if t.Technology == PVSingleAxisTracking {
		geomFactor = t.TrackingGain
	}
	capacity := area * t.PowerDensity // [W] at standard test conditions
	out := make([]float64, len(ghi))
	for h, g := range ghi {
		poa := g * geomFactor // plane-of-array irradiance [W/m²]
		p := poa / 1000 * capacity * t.SystemEfficiency
		p *= 1 - t.ReflectionLoss
		p *= 1 - t.SpectralLoss
		p *= tempDerate(t, ambientTemp[h], poa)
		out[h] = p / 1e6
	}
	return out
}

// tempDerate returns the temperature derating fraction in [0, 1].
// Module temperature is estimated as
// T_mod = T_amb + (NOCT−20)/800·POA, and power is derated linearly
// from the 25 °C reference by the technology's temperature
// coefficient.
func tempDerate(t TechParams, ambient, poa float64) float64 {
	tmod := ambient + (t.NOCT-20)/800*poa
	derate := 1 + t.TempCoefficient*(tmod-25)
	if derate < 0 {
		return 0
	}
	if derate > 1 {
		return 1
	}
	return derate
}
