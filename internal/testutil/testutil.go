// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"testing"

	"github.com/banshee-data/phenomenal/internal/voxel"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertDisjoint fails the test when any voxel belongs to more than one of
// the named sets.
func AssertDisjoint(t testing.TB, sets map[string]voxel.Set) {
	t.Helper()
	owner := make(map[voxel.Position]string)
	for name, s := range sets {
		for p := range s {
			if prev, ok := owner[p]; ok {
				t.Errorf("voxel %s owned by both %s and %s", p, prev, name)
				continue
			}
			owner[p] = name
		}
	}
}
