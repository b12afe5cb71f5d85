package testutil

import "testing"

// Given, When, and Then name subtests after the scenario step they cover.
// The full-stack router tests read as scenarios without a BDD framework.
func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	step(t, "Given", desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) {
	step(t, "When", desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	step(t, "Then", desc, fn)
}

func step(t *testing.T, verb, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run(verb+" "+desc, fn)
}
