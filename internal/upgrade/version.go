// Package upgrade brings BattleScribe data files up to the current schema
// version by applying an ordered chain of transforms.
package upgrade

import "strings"

const (
	// MinVersion is the oldest battleScribeVersion that can be upgraded.
	MinVersion = "1.13b"

	// CurrentVersion is the version every upgraded file is stamped with.
	CurrentVersion = "2.02"
)

// CompareVersions orders two version strings lexicographically, ignoring
// case. It returns -1, 0 or +1.
//
// This is not semantic version ordering: "1.9" sorts after "1.13b". Every
// checkpoint and minimum in use has the same "N.NN" shape, so plain string
// order is what the published files rely on.
func CompareVersions(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
