package main

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/meshclimate/internal/archive"
	"github.com/sells-group/meshclimate/internal/calendar"
	"github.com/sells-group/meshclimate/internal/mesh"
	"github.com/sells-group/meshclimate/internal/model"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <archive>",
	Short: "Decode one archive and print a YAML summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		withWKT, _ := cmd.Flags().GetBool("wkt")
		s, err := inspectArchive(afero.NewOsFs(), args[0], withWKT)
		if err != nil {
			return err
		}
		return writeYAML(cmd.OutOrStdout(), s)
	},
}

type inspectSummary struct {
	Path      string            `yaml:"path"`
	Component model.Component   `yaml:"component"`
	Region    string            `yaml:"region"`
	YearToken int               `yaml:"year_token"`
	Year      int               `yaml:"year"`
	Leap      bool              `yaml:"leap"`
	Days      int               `yaml:"days"`
	Locations []inspectLocation `yaml:"locations"`
}

type inspectLocation struct {
	archive.Header `yaml:",inline"`
	Days           int            `yaml:"days"`
	Unreported     int            `yaml:"unreported_days"`
	Center         []float64      `yaml:"center,omitempty,flow"`
	Bounds         *inspectBounds `yaml:"bounds,omitempty"`
	WKT            string         `yaml:"wkt,omitempty"`
}

type inspectBounds struct {
	South float64 `yaml:"south"`
	West  float64 `yaml:"west"`
	North float64 `yaml:"north"`
	East  float64 `yaml:"east"`
}

// inspectArchive loads one archive and summarises it per location. Codes
// that are not valid mesh codes are reported without bounds.
func inspectArchive(fs afero.Fs, path string, withWKT bool) (*inspectSummary, error) {
	a, err := archive.LoadFile(fs, path)
	if err != nil {
		return nil, err
	}

	s := &inspectSummary{
		Path:      path,
		Component: a.Name.Component,
		Region:    a.Name.Region,
		YearToken: a.Name.YearToken,
		Year:      a.Calendar.Year,
		Leap:      calendar.IsLeap(a.Calendar.Year),
		Days:      a.Calendar.Len(),
	}
	for _, code := range a.Locations {
		days, _ := a.DayArray(code)
		loc := inspectLocation{Header: a.Headers[code], Days: len(days)}
		for _, v := range days {
			if v == model.SentinelValue {
				loc.Unreported++
			}
		}
		if b, err := mesh.Bounds(code); err == nil {
			loc.Bounds = &inspectBounds{South: b.Min(1), West: b.Min(0), North: b.Max(1), East: b.Max(0)}
			lat, lon, _ := mesh.Center(code)
			loc.Center = []float64{lat, lon}
			if withWKT {
				loc.WKT, _ = mesh.WKT(code)
			}
		}
		s.Locations = append(s.Locations, loc)
	}
	return s, nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "inspect: encode yaml")
	}
	return eris.Wrap(enc.Close(), "inspect: close yaml")
}

func init() {
	inspectCmd.Flags().Bool("wkt", false, "include each cell outline as WKT")
	rootCmd.AddCommand(inspectCmd)
}
