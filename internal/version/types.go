package version

// Bump is the severity class of a version increment. It is a closed set:
// the zero value is not meaningful and callers must use the constants.
type Bump string

const (
	// BumpMajor increments the major component and resets minor and patch.
	BumpMajor Bump = "major"
	// BumpMinor increments the minor component and resets patch.
	BumpMinor Bump = "minor"
	// BumpPatch increments only the patch component.
	BumpPatch Bump = "patch"
	// BumpNone means no release-worthy change was found.
	BumpNone Bump = "none"
	// BumpSynced means the manifest merely needs to catch up to the tag
	// history; no new release happens.
	BumpSynced Bump = "synced"
)

// Decision is the outcome of a version calculation for one package.
// It is built once per invocation and never mutated afterwards.
type Decision struct {
	// CurrentVersion is the tag-derived baseline the decision starts from.
	CurrentVersion string `json:"currentVersion"`
	// Bump is the severity of the computed increment.
	Bump Bump `json:"bumpType"`
	// ShouldBump reports whether a new release version is warranted.
	ShouldBump bool `json:"shouldBump"`
	// TargetVersion is the version the package should carry after this
	// invocation (equal to CurrentVersion when no bump is warranted).
	TargetVersion string `json:"targetVersion"`
	// Reason explains the decision in one human-readable sentence.
	Reason string `json:"reason"`
}
