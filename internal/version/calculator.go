// Package version decides whether a package needs a new semantic version and
// computes the target. The decision runs from two inputs — the manifest (disk)
// version and the version implied by the package's latest release tag — plus
// the classified commits accumulated since that tag.
package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/carraways/monorel/internal/commits"
	"github.com/carraways/monorel/internal/errors"
)

// Calculate computes the version decision for one package.
//
// The disk version must never be ahead of the tag version: that combination
// signals a corrupted publish state (a version was written to the manifest
// without the corresponding tag) and is a fatal integrity error, not a
// recoverable condition. Every other branch is a decision:
//
//   - no commits in range: no bump, target stays at the tag version;
//   - tag version 0.0.0: fixed first-release policy, always minor to 0.1.0
//     regardless of the commit types present;
//   - otherwise the highest severity across all commits wins (breaking >
//     feature > fix > none) with standard increment-and-reset semantics;
//   - severity none with the disk version behind the tag version yields a
//     "synced" decision: the manifest is repaired to the tag baseline
//     without a release.
func Calculate(diskVersion, tagVersion string, recs []commits.Record) (Decision, error) {
	if Compare(diskVersion, tagVersion) > 0 {
		return Decision{}, errors.NewIntegrityError(diskVersion, tagVersion,
			"Check whether a release tag is missing for this package",
			"Run 'monorel doctor' to inspect every package series")
	}

	if len(recs) == 0 {
		return Decision{
			CurrentVersion: tagVersion,
			Bump:           BumpNone,
			ShouldBump:     false,
			TargetVersion:  tagVersion,
			Reason:         "No commits in range",
		}, nil
	}

	if Compare(tagVersion, "0.0.0") == 0 {
		return Decision{
			CurrentVersion: tagVersion,
			Bump:           BumpMinor,
			ShouldBump:     true,
			TargetVersion:  "0.1.0",
			Reason:         "First version bump from 0.0.0",
		}, nil
	}

	bump := highestSeverity(recs)
	if bump == BumpNone {
		if Compare(diskVersion, tagVersion) < 0 {
			return Decision{
				CurrentVersion: tagVersion,
				Bump:           BumpSynced,
				ShouldBump:     false,
				TargetVersion:  tagVersion,
				Reason:         fmt.Sprintf("Manifest version %s is behind tag version %s; syncing", diskVersion, tagVersion),
			}, nil
		}
		return Decision{
			CurrentVersion: tagVersion,
			Bump:           BumpNone,
			ShouldBump:     false,
			TargetVersion:  tagVersion,
			Reason:         fmt.Sprintf("No release-worthy changes in %d commits", len(recs)),
		}, nil
	}

	target, err := Increment(tagVersion, bump)
	if err != nil {
		return Decision{}, err
	}

	return Decision{
		CurrentVersion: tagVersion,
		Bump:           bump,
		ShouldBump:     true,
		TargetVersion:  target,
		Reason:         bumpReason(bump, recs),
	}, nil
}

// highestSeverity folds the commit set down to its strongest bump signal.
func highestSeverity(recs []commits.Record) Bump {
	bump := BumpNone
	for _, rec := range recs {
		switch {
		case rec.Breaking:
			return BumpMajor
		case rec.AddsFeature():
			bump = BumpMinor
		case rec.AddsFix() && bump == BumpNone:
			bump = BumpPatch
		}
	}
	return bump
}

// Increment applies a bump to a version string with standard semantic-version
// reset semantics: major zeroes minor and patch, minor zeroes patch, patch
// only increments the last component.
func Increment(current string, bump Bump) (string, error) {
	base, err := semver.NewVersion(Canonical(current))
	if err != nil {
		return "", errors.NewRuntimeError(fmt.Sprintf("cannot parse version %q: %v", current, err))
	}

	var next semver.Version
	switch bump {
	case BumpMajor:
		next = base.IncMajor()
	case BumpMinor:
		next = base.IncMinor()
	case BumpPatch:
		next = base.IncPatch()
	case BumpNone, BumpSynced:
		return base.String(), nil
	default:
		return "", errors.NewRuntimeError(fmt.Sprintf("unknown bump type %q", bump))
	}
	return next.String(), nil
}

// bumpReason names the strongest signal that drove the bump.
func bumpReason(bump Bump, recs []commits.Record) string {
	var breaking, features, fixes int
	for _, rec := range recs {
		switch {
		case rec.Breaking:
			breaking++
		case rec.AddsFeature():
			features++
		case rec.AddsFix():
			fixes++
		}
	}

	switch bump {
	case BumpMajor:
		return fmt.Sprintf("%d breaking change(s) in range", breaking)
	case BumpMinor:
		return fmt.Sprintf("%d feature commit(s) in range", features)
	case BumpPatch:
		return fmt.Sprintf("%d fix commit(s) in range", fixes)
	default:
		return "No release-worthy changes"
	}
}
