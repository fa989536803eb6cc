package model

import (
	"sort"
	"time"
)

// RegionResult is what one RegionPipeline unit reports back.
type RegionResult struct {
	Region  string         `json:"region"`
	Written int            `json:"written"`
	Skipped []LocationCode `json:"skipped"`
	Elapsed time.Duration  `json:"elapsed"`
}

// Difference is one persisted value that disagrees with the raw archive.
type Difference struct {
	Region     string       `json:"region"`
	Location   LocationCode `json:"location"`
	Date       string       `json:"date"`
	Component  Component    `json:"component"`
	Persisted  float64      `json:"persisted"`
	Recomputed float64      `json:"recomputed"`
}

// SortDifferences orders differences by region, location, date and component.
func SortDifferences(diffs []Difference) {
	sort.SliceStable(diffs, func(i, j int) bool {
		a, b := diffs[i], diffs[j]
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		if a.Location != b.Location {
			return a.Location < b.Location
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.Component.Column() < b.Component.Column()
	})
}

// SortRegionResults orders results by region and each skip list lexically.
func SortRegionResults(results []RegionResult) {
	sort.Slice(results, func(i, j int) bool { return results[i].Region < results[j].Region })
	for i := range results {
		sort.Slice(results[i].Skipped, func(a, b int) bool {
			return results[i].Skipped[a] < results[i].Skipped[b]
		})
	}
}
