package pipeline

import (
	"reflect"
	"testing"

	"github.com/citybeat/citybeat/app/database"
)

func TestMergeStatusTags_ChangeDropsNewAddsUpdated(t *testing.T) {
	got := mergeStatusTags(database.TagSet{database.StatusNew}, statusChange{changed: true})
	expected := database.TagSet{database.StatusUpdated}

	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestMergeStatusTags_UnchangedKeepsNew(t *testing.T) {
	got := mergeStatusTags(database.TagSet{database.StatusNew}, statusChange{})
	expected := database.TagSet{database.StatusNew}

	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestMergeStatusTags_ReobservationClearsInactive(t *testing.T) {
	previous := database.TagSet{database.StatusUpdated, database.StatusInactive}

	got := mergeStatusTags(previous, statusChange{changed: true})

	if got.Has(database.StatusInactive) {
		t.Errorf("Re-observation should clear the inactive tag, got %v", got)
	}
	if !got.Has(database.StatusUpdated) {
		t.Errorf("Expected updated tag, got %v", got)
	}
}

func TestMergeStatusTags_MakeInactive(t *testing.T) {
	got := mergeStatusTags(database.TagSet{database.StatusNew}, statusChange{makeInactive: true})

	if !got.Has(database.StatusInactive) {
		t.Errorf("Expected inactive tag, got %v", got)
	}
	if !got.Has(database.StatusNew) {
		t.Errorf("Inactivation alone should not drop the new tag, got %v", got)
	}
}

func TestMergeStatusTags_ImportedMirrored(t *testing.T) {
	got := mergeStatusTags(database.TagSet{database.StatusUpdated}, statusChange{imported: true})
	if !got.Has(database.StatusImported) {
		t.Errorf("Expected imported tag mirrored in, got %v", got)
	}

	got = mergeStatusTags(database.TagSet{database.StatusUpdated, database.StatusImported}, statusChange{})
	if got.Has(database.StatusImported) {
		t.Errorf("Expected imported tag mirrored out, got %v", got)
	}
}

func TestMergeStatusTags_NeverEmpty(t *testing.T) {
	got := mergeStatusTags(database.TagSet{database.StatusImported}, statusChange{})
	expected := database.TagSet{database.StatusNew}

	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Empty result should fall back to {new}, got %v", got)
	}
}

func TestMergeStatusTags_Idempotent(t *testing.T) {
	change := statusChange{changed: true, imported: true}

	once := mergeStatusTags(database.TagSet{database.StatusNew}, change)
	twice := mergeStatusTags(once, change)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Applying the same change twice should be stable: %v vs %v", once, twice)
	}
}

func TestMergeStatusTags_DoesNotMutateInput(t *testing.T) {
	previous := database.TagSet{database.StatusNew, database.StatusImported}
	snapshot := append(database.TagSet{}, previous...)

	mergeStatusTags(previous, statusChange{changed: true, makeInactive: true})

	if !reflect.DeepEqual(previous, snapshot) {
		t.Errorf("Input tag set was mutated: %v", previous)
	}
}
