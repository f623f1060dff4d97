package pipeline

import (
	"github.com/citybeat/citybeat/app/database"
)

// statusChange describes a single reconciliation write's effect on a
// record's lifecycle tags.
type statusChange struct {
	changed      bool // content hash differs, or the record was inactive and reappeared
	imported     bool // external import flag, mirrored into the tag set
	makeInactive bool
}

// mergeStatusTags is the only status-tag transition function. It applies a
// change to an existing tag set:
//   - makeInactive toggles the inactive tag; re-observation always clears it
//     (inactive and newly observed are mutually exclusive in one write)
//   - a change drops new and adds updated
//   - imported mirrors the external flag, so reconciliation never silently
//     drops or fabricates it
//   - the result is never empty; {new} is forced as the fallback
func mergeStatusTags(previous database.TagSet, change statusChange) database.TagSet {
	status := previous

	if change.makeInactive {
		status = status.With(database.StatusInactive)
	} else {
		status = status.Without(database.StatusInactive)
	}

	if change.changed {
		status = status.Without(database.StatusNew).With(database.StatusUpdated)
	}

	if change.imported {
		status = status.With(database.StatusImported)
	} else {
		status = status.Without(database.StatusImported)
	}

	if len(status) == 0 {
		status = database.TagSet{database.StatusNew}
	}

	return status
}
