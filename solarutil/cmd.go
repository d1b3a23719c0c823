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

// Package solarutil holds the configuration, dataset-loading, and
// command-line functionality for the solarplants generation model.
package solarutil

import (
	"context"
	"fmt"
	"time"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/solarplants"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// argTimeLayout is the format of the begin and end command-line
// arguments.
const argTimeLayout = "2006-01-02T15:04:05"

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to SolarPlants.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "payload",
			usage: `
              payload specifies the location of the JSON run request holding
              the region, demand targets, and technology parameter overrides.`,
			shorthand:  "p",
			defaultVal: "input.json",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "begin",
			usage: `
              begin specifies the first hour (inclusive) of the simulation
              window, in the format 2019-03-01T13:00:00 (UTC).`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "end",
			usage: `
              end specifies the last hour (inclusive) of the simulation
              window, in the format 2019-03-02T13:00:00 (UTC). It must be
              after begin.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "InventoryData",
			usage: `
              InventoryData is the location of the land-inventory dataset:
              a CSV file of eligible land parcels with subregion, area,
              slope, land use, mean irradiance, and centroid coordinates.`,
			defaultVal: "land_inventory.csv",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "ResourceData",
			usage: `
              ResourceData is the location of the hourly solar-resource
              dataset: a CSV file of DNI, GHI, and ambient temperature per
              subregion and irradiance bin.`,
			defaultVal: "solar_resource.csv",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputDir",
			usage: `
              OutputDir is the directory where the result files
              (aggregated.csv, distribution.csv, summary.csv) are written.`,
			defaultVal: "output",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "DatasetProj",
			usage: `
              DatasetProj gives the Proj4 specification of the coordinate
              system the land-inventory centroids are stored in. It is only
              used when the payload requests coordinate conversion.`,
			defaultVal: "+proj=utm +zone=30 +ellps=GRS80 +units=m +no_defs",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "AllowedRegions",
			usage: `
              AllowedRegions lists the coarse regions the datasets cover.
              A payload addressing any other region is rejected.`,
			defaultVal: []string{"ES41"},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "ExcludedLandUses",
			usage: `
              ExcludedLandUses lists the land-use classes that are never
              eligible for plant construction, in addition to the payload's
              slope limit.`,
			defaultVal: []string{"urban", "water", "wetland", "forest"},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "RequireFullSupply",
			usage: `
              RequireFullSupply makes a run fail when the eligible land in
              the region cannot satisfy a technology's demand target. If
              false, the run completes with whatever land is available and
              marks the result as under-supplied.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("SOLARPLANTS")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("solarplants: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "solarplants",
	Short: "A solar renewable-generation estimation model.",
	Long: `SolarPlants estimates the hourly electricity and heat generation of
concentrating solar power and photovoltaic plants hypothetically built
on the best available land of an administrative region.

Configuration can be changed by using a configuration file (and providing
the path to the file using the --config flag), by using command-line
arguments, or by setting environment variables in the format
'SOLARPLANTS_var' where 'var' is the name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration
information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of SolarPlants.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("SolarPlants v%s\n", solarplants.Version)
	},
	DisableAutoGenTag: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the model.",
	Long: `run loads the run request given by --payload, selects land and
simulates hourly generation for the window [--begin, --end], and writes
the aggregated, distributed, and summary results to the output
directory.`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		excluded, err := cast.ToStringSliceE(Cfg.Get("ExcludedLandUses"))
		if err != nil {
			return err
		}
		return Run(cmd,
			Cfg.GetString("payload"),
			Cfg.GetString("begin"),
			Cfg.GetString("end"),
			Cfg.GetString("InventoryData"),
			Cfg.GetString("ResourceData"),
			Cfg.GetString("OutputDir"),
			Cfg.GetString("DatasetProj"),
			Cfg.GetStringSlice("AllowedRegions"),
			excluded,
			Cfg.GetBool("RequireFullSupply"),
		)
	},
}

// parseWindow validates and parses the begin and end command-line
// arguments.
func parseWindow(begin, end string) (solarplants.Window, error) {
	var w solarplants.Window
	start, err := time.ParseInLocation(argTimeLayout, begin, time.UTC)
	if err != nil {
		return w, fmt.Errorf("solarutil: begin has an incorrect format (yyyy-MM-ddTHH:mm:ss): %v", err)
	}
	stop, err := time.ParseInLocation(argTimeLayout, end, time.UTC)
	if err != nil {
		return w, fmt.Errorf("solarutil: end has an incorrect format (yyyy-MM-ddTHH:mm:ss): %v", err)
	}
	if !stop.After(start) {
		return w, fmt.Errorf("solarutil: end time %v is not after start time %v", stop, start)
	}
	return solarplants.NewWindow(start, stop)
}

// Run loads the payload and datasets and executes one model run,
// writing the result files to outputDir.
func Run(cmd *cobra.Command, payloadPath, begin, end, inventoryData, resourceData,
	outputDir, datasetProj string, allowedRegions, excludedLandUses []string,
	requireFullSupply bool) error {

	w, err := parseWindow(begin, end)
	if err != nil {
		return err
	}
	p, err := LoadPayload(payloadPath, allowedRegions)
	if err != nil {
		return err
	}
	if y := w.Start.Year(); y != *p.Year {
		logrus.WithFields(logrus.Fields{
			"window_year":  y,
			"payload_year": *p.Year,
		}).Warn("simulation window is outside the payload's meteorological year")
	}

	params, err := solarplants.ResolveParams(p.Overrides()...)
	if err != nil {
		return err
	}

	if *p.ConvertCoord == 0 {
		datasetProj = "" // Centroids are already in long/lat.
	}
	loader, err := NewLoader(datasetProj)
	if err != nil {
		return err
	}
	ctx := context.Background()
	units, err := loader.LandInventory(ctx, inventoryData)
	if err != nil {
		return err
	}
	resource, err := loader.ResourceSeries(ctx, resourceData)
	if err != nil {
		return err
	}

	outputter, err := solarplants.NewOutputter(outputDir)
	if err != nil {
		return err
	}

	filter := p.Filter()
	filter.ExcludedLandUses = excludedLandUses

	m := solarplants.NewModel(p.Region(), HierarchyFromUnits(units), params, w,
		units, filter, resource, p.Demands(),
		&solarplants.Selector{RequireFullSupply: requireFullSupply},
		nil, nil,
		[]solarplants.DomainManipulator{
			outputter.Output(),
			solarplants.Log(cmd.OutOrStdout()),
		})

	// Receive and log the model's progress and warning messages.
	msgLog := make(chan string)
	m.SetMessageChan(msgLog)
	done := make(chan struct{})
	go func() {
		for msg := range msgLog {
			logrus.Info(msg)
		}
		close(done)
	}()

	runErr := func() error {
		if err := m.Init(); err != nil {
			return err
		}
		if err := m.Run(); err != nil {
			return err
		}
		return m.Cleanup()
	}()
	close(msgLog)
	<-done
	return runErr
}
