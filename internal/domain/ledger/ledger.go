// Package ledger holds the test-allocation counters shared by the three
// administrative tiers and the only operations allowed to mutate them.
// Persisting both sides of a transfer is the caller's job; the functions
// here are pure counter arithmetic so they can be wrapped in whatever
// transaction the storage layer provides.
package ledger

import "errors"

// ErrInsufficientQuota is returned when a transfer's preconditions on the
// grantor or grantee counters are not met. Both ledgers are left untouched.
var ErrInsufficientQuota = errors.New("insufficient test quota")

// TestMetrics is the per-tier quota ledger embedded in super admin,
// hospital admin and doctor records.
type TestMetrics struct {
	TotalTests     int `db:"total_tests" json:"totalTests"`
	TestsAllocated int `db:"tests_allocated" json:"testsAllocated"`
	TestsDone      int `db:"tests_done" json:"testsDone"`
	TestsRemaining int `db:"tests_remaining" json:"testsRemaining"`
}

// Seed returns a ledger with n tests available and nothing allocated or done.
func Seed(n int) TestMetrics {
	return TestMetrics{TotalTests: n, TestsRemaining: n}
}

// clampFloor is the single clamping policy. It applies only where the update
// rules below say so; RecordCompletion deliberately does not use it.
func clampFloor(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// ReallocateNetwork moves count tests between a super admin (parent) and a
// hospital admin (child). count may be negative to claw tests back.
//
// Note the parent-side formula differs from AllocateDoctor: here the
// grantor's TestsAllocated goes UP by count. The two rules are kept side by
// side on purpose; which one is intended is an open product question and
// unifying them silently would change dashboard numbers.
func ReallocateNetwork(parent, child *TestMetrics, count int) error {
	if count > 0 && parent.TestsRemaining < count {
		return ErrInsufficientQuota
	}
	if count < 0 && (child.TestsRemaining < -count || child.TotalTests < -count) {
		return ErrInsufficientQuota
	}

	parent.TestsAllocated = clampFloor(parent.TestsAllocated + count)
	parent.TestsRemaining = clampFloor(parent.TestsRemaining - count)

	child.TotalTests = clampFloor(child.TotalTests + count)
	child.TestsRemaining = clampFloor(child.TestsRemaining + count)
	return nil
}

// AllocateDoctor moves count tests from a hospital admin (parent) to a
// doctor (child). There is no de-allocation path at this tier, so count
// must be strictly positive.
func AllocateDoctor(parent, child *TestMetrics, count int) error {
	if count <= 0 {
		return ErrInsufficientQuota
	}
	if parent.TestsRemaining < count {
		return ErrInsufficientQuota
	}

	child.TestsAllocated += count
	child.TestsRemaining += count

	parent.TestsAllocated -= count
	parent.TestsRemaining -= count
	return nil
}

// RecordCompletion marks one test as done on a doctor's ledger. There is no
// floor check: a doctor who runs more tests than allocated drives
// TestsRemaining negative, and dashboards show it that way.
func RecordCompletion(m *TestMetrics) {
	m.TestsDone++
	m.TestsRemaining--
}
