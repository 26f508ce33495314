package reconcile

import (
	"cmp"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID     int
	Group  *string
	Value  string
	Marked bool // local annotation
}

func str(s string) *string { return &s }

var rowSchema = Schema[row, int]{
	Key: func(r row) int { return r.ID },
	Normalize: func(r *row) {
		if r.Group != nil && (*r.Group == "" || *r.Group == "None" || *r.Group == "nan") {
			r.Group = nil
		}
	},
	CopyLocal: func(dst *row, prior row) { dst.Marked = prior.Marked },
	Defaults:  func(r *row) { r.Marked = false },
	Compare: func(a, b row) int {
		return ComparePtr(a.Group, b.Group)
	},
	Keep: KeepFirst,
}

func TestMerge_FirstSync(t *testing.T) {
	incoming := []row{
		{ID: 2, Value: "b", Marked: true},
		{ID: 1, Value: "a"},
	}

	out := Merge(nil, incoming, rowSchema)

	require.Len(t, out.Rows, 2)
	assert.Equal(t, 2, out.Added)
	assert.Equal(t, 1, out.Rows[0].ID)
	assert.False(t, out.Rows[1].Marked, "defaults apply to every new row")
}

func TestMerge_EmptyIncomingReturnsExisting(t *testing.T) {
	existing := []row{
		{ID: 3, Value: "c", Marked: true},
		{ID: 1, Group: str("None"), Value: "a"},
	}

	out := Merge(existing, nil, rowSchema)

	assert.Equal(t, existing, out.Rows)
	assert.Equal(t, 2, out.Retained)

	out = Merge(existing, []row{}, rowSchema)
	assert.Equal(t, existing, out.Rows)
}

func TestMerge_PreservesLocalAndAppliesRemote(t *testing.T) {
	existing := []row{
		{ID: 1, Value: "old", Marked: true},
		{ID: 2, Value: "gone", Marked: true},
	}
	incoming := []row{
		{ID: 1, Value: "new"},
		{ID: 3, Value: "fresh", Marked: true},
	}

	out := Merge(existing, incoming, rowSchema)

	require.Len(t, out.Rows, 3)
	byID := index(out.Rows)
	assert.Equal(t, "new", byID[1].Value)
	assert.True(t, byID[1].Marked)
	assert.Equal(t, "gone", byID[2].Value)
	assert.True(t, byID[2].Marked)
	assert.False(t, byID[3].Marked)
	assert.Equal(t, 1, out.Added)
	assert.Equal(t, 1, out.Updated)
	assert.Equal(t, 1, out.Retained)
}

func TestMerge_PlaceholdersDoNotCreateRows(t *testing.T) {
	existing := []row{{ID: 1, Group: nil, Value: "a", Marked: true}}
	incoming := []row{{ID: 1, Group: str("nan"), Value: "a"}}

	out := Merge(existing, incoming, rowSchema)

	require.Len(t, out.Rows, 1)
	assert.Nil(t, out.Rows[0].Group)
	assert.True(t, out.Rows[0].Marked)
	assert.Equal(t, 1, out.Unchanged)
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	existing := []row{{ID: 1, Group: str("None"), Marked: true}}
	incoming := []row{{ID: 1, Group: str("nan")}}

	Merge(existing, incoming, rowSchema)

	assert.Equal(t, "None", *existing[0].Group)
	assert.Equal(t, "nan", *incoming[0].Group)
	assert.False(t, incoming[0].Marked)
}

func TestMerge_SortsNilLast(t *testing.T) {
	incoming := []row{
		{ID: 1},
		{ID: 2, Group: str("b")},
		{ID: 3, Group: str("a")},
	}

	out := Merge(nil, incoming, rowSchema)

	assert.Equal(t, []int{3, 2, 1}, keys(out.Rows))
}

func TestDedup_KeepRules(t *testing.T) {
	rows := []row{
		{ID: 1, Value: "first"},
		{ID: 2, Value: "other"},
		{ID: 1, Value: "second"},
	}

	first, collisions := Dedup(rows, rowSchema)
	require.Len(t, first, 2)
	assert.Equal(t, "first", first[0].Value)
	assert.Equal(t, []Collision[int]{{Key: 1, Occurrences: 2}}, collisions)

	lastSchema := rowSchema
	lastSchema.Keep = KeepLast
	last, _ := Dedup(rows, lastSchema)
	require.Len(t, last, 2)
	assert.Equal(t, "second", last[0].Value)
}

func TestMerge_IncomingCollisionsAreReported(t *testing.T) {
	incoming := []row{{ID: 7, Value: "x"}, {ID: 7, Value: "y"}}

	out := Merge(nil, incoming, rowSchema)

	require.Len(t, out.Rows, 1)
	assert.Equal(t, "x", out.Rows[0].Value)
	require.Len(t, out.Collisions, 1)
	assert.Equal(t, 7, out.Collisions[0].Key)
}

// randomTable builds a table with unique keys drawn from [0, 20)
func randomTable(r *rand.Rand) []row {
	n := r.Intn(12)
	used := map[int]bool{}
	var rows []row
	groups := []*string{nil, str("a"), str("b"), str("None")}
	for len(rows) < n {
		id := r.Intn(20)
		if used[id] {
			continue
		}
		used[id] = true
		rows = append(rows, row{
			ID:     id,
			Group:  groups[r.Intn(len(groups))],
			Value:  fmt.Sprintf("v%d", r.Intn(3)),
			Marked: r.Intn(2) == 0,
		})
	}
	return rows
}

func TestMerge_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 300; i++ {
		existing := randomTable(r)
		incoming := randomTable(r)

		once := Merge(existing, incoming, rowSchema)
		twice := Merge(once.Rows, incoming, rowSchema)

		// idempotent
		require.Equal(t, once.Rows, twice.Rows, "iteration %d", i)

		// keys unique and covering both inputs
		merged := index(once.Rows)
		require.Len(t, merged, len(once.Rows))
		for _, e := range existing {
			got, ok := merged[e.ID]
			require.True(t, ok)
			// local annotations survive regardless of incoming content
			assert.Equal(t, e.Marked, got.Marked)
		}
		for _, in := range incoming {
			got, ok := merged[in.ID]
			require.True(t, ok)
			assert.Equal(t, in.Value, got.Value)
		}

		// empty incoming is the identity
		assert.Equal(t, existing, Merge(existing, nil, rowSchema).Rows)
	}
}

func TestComparePtr(t *testing.T) {
	a, b := 1, 2
	assert.Equal(t, -1, ComparePtr(&a, &b))
	assert.Equal(t, -1, ComparePtr(&a, nil))
	assert.Equal(t, 1, ComparePtr(nil, &a))
	assert.Equal(t, 0, ComparePtr[int](nil, nil))
	assert.Equal(t, 0, cmp.Compare(a, a))
}

func index(rows []row) map[int]row {
	m := make(map[int]row, len(rows))
	for _, r := range rows {
		m[r.ID] = r
	}
	return m
}

func keys(rows []row) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

type label struct {
	Name string
	UID  *int
}

var labelSchema = Schema[label, string]{
	Key: func(l label) string { return l.Name },
	RemoteID: func(l label) (int, bool) {
		if l.UID == nil {
			return 0, false
		}
		return *l.UID, true
	},
}

func uid(n int) *int { return &n }

func TestMerge_RemoteIDFollowsRenamedKey(t *testing.T) {
	existing := []label{
		{Name: "alice_anderson", UID: uid(1)},
		{Name: "bob", UID: uid(2)},
		{Name: "pending"},
	}
	incoming := []label{
		{Name: "Al", UID: uid(1)},
		{Name: "bob", UID: uid(2)},
	}

	out := Merge(existing, incoming, labelSchema)

	assert.Equal(t, []label{{Name: "Al", UID: uid(1)}, {Name: "bob", UID: uid(2)}, {Name: "pending"}}, out.Rows)
	assert.Equal(t, 1, out.Updated)
	assert.Equal(t, 1, out.Unchanged)
	assert.Zero(t, out.Added)
	assert.Equal(t, 1, out.Retained)
}

func TestMerge_RemoteIDTakenOverByAnotherKey(t *testing.T) {
	// uid 1 moves onto a key another persisted row already holds
	existing := []label{
		{Name: "alice", UID: uid(1)},
		{Name: "Al", UID: uid(3)},
	}
	incoming := []label{{Name: "Al", UID: uid(1)}}

	out := Merge(existing, incoming, labelSchema)

	assert.Equal(t, []label{{Name: "Al", UID: uid(1)}}, out.Rows)
	assert.Zero(t, out.Retained)
}
