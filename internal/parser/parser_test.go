package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTaskRef(t *testing.T) {
	tests := []struct {
		message string
		want    *int
	}{
		{"Fixed Task-42 bug", intPtr(42)},
		{"Task#7 done", intPtr(7)},
		{"no ref here", nil},
		{"multiple Task-1 and Task-2", intPtr(1)},
		{"TASK12 lowercase insensitive", intPtr(12)},
		{"task 5 with a space", nil},
		{"task--5 two separators", nil},
		{"see task_9", intPtr(9)},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			got, a := ExtractTaskRef(tt.message)
			assert.Nil(t, a)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractTaskRef_Overflow(t *testing.T) {
	got, a := ExtractTaskRef("task-99999999999999999999999")

	assert.Nil(t, got)
	require.NotNil(t, a)
	assert.Equal(t, "task_num", a.Field)
}

func TestLocalizeTimestamp(t *testing.T) {
	loc, a := LocalizeTimestamp("2024-03-15T02:00:00Z")

	require.Nil(t, a)
	assert.Equal(t, "03/14/2024", loc.Date)
	assert.True(t, loc.UTC.Equal(time.Date(2024, 3, 15, 2, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.UTC, loc.UTC.Location())
}

func TestLocalizeTimestamp_NoDaylightSaving(t *testing.T) {
	// July: Phoenix stays at UTC-7
	loc, a := LocalizeTimestamp("2024-07-01T06:59:59Z")

	require.Nil(t, a)
	assert.Equal(t, "06/30/2024", loc.Date)
}

func TestLocalizeTimestamp_Offsets(t *testing.T) {
	loc, a := LocalizeTimestamp("2024-03-15T09:00:00.000+02:00")

	require.Nil(t, a)
	assert.Equal(t, "03/15/2024", loc.Date)
	assert.Equal(t, 7, loc.UTC.Hour())
}

func TestLocalizeTimestamp_Invalid(t *testing.T) {
	_, a := LocalizeTimestamp("yesterday")
	require.NotNil(t, a)
	assert.Equal(t, "utc_time", a.Field)

	_, a = LocalizeTimestamp("None")
	require.NotNil(t, a)
}

func TestFormatTrackerDate(t *testing.T) {
	got, a := FormatTrackerDate("2024-03-01")
	require.Nil(t, a)
	assert.Equal(t, "03/01/2024", got)

	got, a = FormatTrackerDate("nan")
	assert.Nil(t, a)
	assert.Equal(t, "", got)

	_, a = FormatTrackerDate("March first")
	assert.NotNil(t, a)
}

func TestResolveContributor(t *testing.T) {
	known := []string{"alice", "bob"}

	assert.Equal(t, "alice", ResolveContributor(known, "alice", "someone@example.com"))
	assert.Equal(t, "bob", ResolveContributor(known, "bobby", "bob@example.com"))
	assert.Equal(t, "Unknown", ResolveContributor(known, "carol", "carol@example.com"))
	assert.Equal(t, "Unknown", ResolveContributor(known, "", "not-an-email"))
	assert.Equal(t, "Unknown", ResolveContributor(nil, "alice", "alice@example.com"))
}

func TestResolveMemberName(t *testing.T) {
	assert.Equal(t, "Al", ResolveMemberName("alice_smith", "Al"))
	assert.Equal(t, "bob", ResolveMemberName("bob", "Robert Jones"))
	assert.Equal(t, "carol", ResolveMemberName("carol", ""))
	assert.Equal(t, "dave_the_dev", ResolveMemberName("dave_the_dev", "None"))
	assert.Equal(t, "Eve", ResolveMemberName("", "Eve"))
}

func TestPlaceholders(t *testing.T) {
	for _, s := range []string{"", " ", "None", "nan", "NaN", "null", "<NA>"} {
		assert.True(t, IsPlaceholder(s), s)
		assert.Nil(t, NullIfPlaceholder(s), s)
	}

	v := NullIfPlaceholder(" alice ")
	require.NotNil(t, v)
	assert.Equal(t, "alice", *v)
}

func TestParseOptionalInt(t *testing.T) {
	n, a := ParseOptionalInt("us_num", "3.0")
	require.Nil(t, a)
	assert.Equal(t, intPtr(3), n)

	n, a = ParseOptionalInt("us_num", "NaN")
	assert.Nil(t, a)
	assert.Nil(t, n)

	n, a = ParseOptionalInt("us_num", "three")
	assert.Nil(t, n)
	assert.NotNil(t, a)
}

func TestParseBool(t *testing.T) {
	v, a := ParseBool("is_closed", "True")
	assert.Nil(t, a)
	assert.True(t, v)

	v, a = ParseBool("is_closed", "")
	assert.Nil(t, a)
	assert.False(t, v)

	_, a = ParseBool("is_closed", "maybe")
	assert.NotNil(t, a)
}

func intPtr(n int) *int { return &n }
