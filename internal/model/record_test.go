package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordKey(t *testing.T) {
	a := NormalizedRecord{State: "Texas", BillNumber: "HB 1", Title: "x"}
	b := NormalizedRecord{State: "Texas", BillNumber: "HB 1", Title: "y"}
	c := NormalizedRecord{State: "Utah", BillNumber: "HB 1"}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestStatusName(t *testing.T) {
	assert.Equal(t, "Introduced", StatusName(1))
	assert.Equal(t, "Engrossed", StatusName(2))
	assert.Equal(t, "Enrolled", StatusName(3))
	assert.Equal(t, "Passed", StatusName(4))
	assert.Equal(t, "Unknown", StatusName(0))
	assert.Equal(t, "Unknown", StatusName(99))
}

func TestStateName(t *testing.T) {
	assert.Equal(t, "California", StateName("CA"))
	assert.Equal(t, "District of Columbia", StateName("DC"))
	assert.Equal(t, "XX", StateName("XX"))
}

func TestFormatExtractedDate(t *testing.T) {
	ts := time.Date(2025, 8, 28, 9, 5, 1, 0, time.UTC)
	assert.Equal(t, "2025-08-28 09:05:01", FormatExtractedDate(ts))
}
