// Package guard protects published lists against implausible swings in size,
// the usual symptom of a broken scrape or a failed resolution run.
package guard

import (
	"github.com/charmbracelet/log"
)

// Check compares the new entry count of one artifact family against the
// previous run. A zero count on either side means there is no comparable
// baseline and the check passes. Otherwise new/old must stay within
// [1-tolerance, 1+tolerance] inclusive; a violation is logged with the
// observed ratio and the acceptable band, and reported as failure.
func Check(family string, oldCount, newCount int, tolerance float64) bool {
	if oldCount == 0 || newCount == 0 {
		return true
	}

	ratio := float64(newCount) / float64(oldCount)
	minRatio := 1.0 - tolerance
	maxRatio := 1.0 + tolerance

	if ratio < minRatio || ratio > maxRatio {
		log.Warn("entry count changed beyond tolerance",
			"family", family,
			"old", oldCount,
			"new", newCount,
			"ratio", ratio,
			"min_ratio", minRatio,
			"max_ratio", maxRatio,
		)
		return false
	}

	return true
}
