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

// Package solarplants estimates hourly renewable generation from
// concentrating solar power (CSP) and photovoltaic (PV) plants for an
// administrative region. Given an investment, installed capacity, or
// land-area target per technology, it selects the best available
// eligible land within the region's fine subregions, ranked by solar
// resource quality, simulates hourly generation for the selected land,
// and aggregates the results from the fine subregions up to the
// region total.
//
// The model is a single-pass batch computation over in-memory inputs.
// Dataset loading, payload validation, and the command-line interface
// live in the solarutil package; this package only performs the
// demand→selection→simulation→aggregation pipeline.
package solarplants
