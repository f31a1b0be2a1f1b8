package testutil

import (
	"time"

	"github.com/google/uuid"
)

// Fixed identifiers and clock values for deterministic tests.
var (
	TestClaimantID  = "claimant-0001"
	TestClaimantID2 = "claimant-0002"

	TestAssessmentID = uuid.MustParse("00000000-0000-0000-0000-0000000000a1")

	// TestNow is a Tuesday mid-morning, outside every time-pattern window.
	TestNow = time.Date(2026, 3, 3, 10, 30, 0, 0, time.UTC)
)

// DaysBefore returns TestNow shifted back by n days.
func DaysBefore(n int) time.Time {
	return TestNow.AddDate(0, 0, -n)
}
