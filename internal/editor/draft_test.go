package editor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewDraftSeedsLocalToday(t *testing.T) {
	before := time.Now()
	d := newDraft(Seed{})
	after := time.Now()

	localMidnight := func(now time.Time) time.Time {
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	}
	issued := d.Meta.IssueDate
	require.True(t, issued.Equal(localMidnight(before)) || issued.Equal(localMidnight(after)),
		"issue date %s is not today's local midnight", issued)
	require.Regexp(t, `^INV-\d{4}-[0-9A-F]{4}$`, d.Meta.Number)
}
