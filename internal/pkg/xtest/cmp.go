// Package xtest holds comparison helpers shared by tests.
package xtest

import (
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Diff compares two values and returns a readable mismatch report, empty
// when they are equal. Timestamps within a second count as equal, so rows
// survive a round trip through a driver that stores less precision.
func Diff(want, got any, opts ...cmp.Option) string {
	allOpts := append(opts, cmpopts.EquateApproxTime(time.Second))

	return cmp.Diff(want, got, allOpts...)
}
