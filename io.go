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
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

const timeLayout = "2006-01-02 15:04:05"

// Outputter writes run results to CSV files in a directory:
// aggregated.csv holds the coarse-region hourly series per technology
// family, distribution.csv holds the per-subregion hourly series, and
// summary.csv holds the selection metadata and annual operational
// expenditure per technology.
type Outputter struct {
	dir string
}

// NewOutputter creates an outputter that writes into dir, creating it
// if necessary.
func NewOutputter(dir string) (*Outputter, error) {
	if dir == "" {
		return nil, fmt.Errorf("solarplants: no output directory specified")
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("solarplants: while creating output directory: %v", err)
	}
	return &Outputter{dir: dir}, nil
}

// Output returns a function that writes the model results. It is meant
// to run as a cleanup function, after the pipeline has produced
// Results.
func (o *Outputter) Output() DomainManipulator {
	return func(m *Model) error {
		if m.Results == nil {
			return fmt.Errorf("solarplants: no results to output")
		}
		if err := o.writeAggregated(m.Results); err != nil {
			return err
		}
		if err := o.writeDistribution(m.Results); err != nil {
			return err
		}
		return o.writeSummary(m.Results)
	}
}

// familyTotals sums the per-technology series into thermal (CSP) and
// electrical (PV) family series.
func familyTotals(r *RegionResults) (thermal, pv []float64) {
	n := r.Window.Hours()
	thermal = make([]float64, n)
	pv = make([]float64, n)
	for tech, tot := range r.Total {
		dst := pv
		if tech.IsCSP() {
			dst = thermal
		}
		for h, v := range tot {
			dst[h] += v
		}
	}
	return thermal, pv
}

func (o *Outputter) writeAggregated(r *RegionResults) error {
	f, err := os.Create(filepath.Join(o.dir, "aggregated.csv"))
	if err != nil {
		return fmt.Errorf("solarplants: while creating aggregated output: %v", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"time(UTC)", "Pthermal_" + r.Region, "Ppv_" + r.Region}); err != nil {
		return err
	}
	thermal, pv := familyTotals(r)
	for h, ts := range r.Window.Times() {
		rec := []string{
			ts.UTC().Format(timeLayout),
			formatFloat(thermal[h]),
			formatFloat(pv[h]),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (o *Outputter) writeDistribution(r *RegionResults) error {
	// One thermal and one PV column per subregion that generated
	// anything, in ascending subregion order.
	subs := make(map[string]bool)
	for _, p := range r.Profiles {
		subs[p.Subregion] = true
	}
	order := make([]string, 0, len(subs))
	for s := range subs {
		order = append(order, s)
	}
	sort.Strings(order)

	series := make(map[string][2][]float64, len(order)) // thermal, pv
	n := r.Window.Hours()
	for _, sub := range order {
		series[sub] = [2][]float64{make([]float64, n), make([]float64, n)}
	}
	for _, p := range r.Profiles {
		s := series[p.Subregion]
		i := 1
		if p.Technology.IsCSP() {
			i = 0
		}
		for h, v := range p.Energy {
			s[i][h] += v
		}
	}

	f, err := os.Create(filepath.Join(o.dir, "distribution.csv"))
	if err != nil {
		return fmt.Errorf("solarplants: while creating distribution output: %v", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	header := []string{"time(UTC)"}
	for _, sub := range order {
		header = append(header, sub+"_Pthermal", sub+"_Ppv")
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for h, ts := range r.Window.Times() {
		rec := make([]string, 0, len(header))
		rec = append(rec, ts.UTC().Format(timeLayout))
		for _, sub := range order {
			s := series[sub]
			rec = append(rec, formatFloat(s[0][h]), formatFloat(s[1][h]))
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (o *Outputter) writeSummary(r *RegionResults) error {
	f, err := os.Create(filepath.Join(o.dir, "summary.csv"))
	if err != nil {
		return fmt.Errorf("solarplants: while creating summary output: %v", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"technology", "area_m2", "capacity_mw",
		"investment_eur", "energy_mwh", "annual_opex_eur", "under_supplied"}); err != nil {
		return err
	}
	for _, tech := range DefaultPriority {
		s, ok := r.Selection[tech]
		if !ok {
			continue
		}
		rec := []string{
			string(tech),
			formatFloat(s.Area.Value()),
			formatFloat(s.Capacity.Value() / 1e6),
			formatFloat(s.Investment.Value()),
			formatFloat(r.TotalEnergy[tech]),
			formatFloat(r.AnnualOPEX[tech]),
			strconv.FormatBool(s.UnderSupplied),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
