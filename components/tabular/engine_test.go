package tabular

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func peopleCollection() []Record {
	return []Record{
		{"Id": 1, "Name": "Alice", "Plan": "Pro"},
		{"Id": 2, "Name": "bob", "Plan": "Free"},
		{"Id": 3, "Name": "Charlie", "Plan": "Pro"},
	}
}

func ids(rows []Record) []int {
	out := make([]int, 0, len(rows))
	for _, r := range rows {
		id, _ := r.ID()
		out = append(out, id)
	}
	return out
}

func numbered(n int) []Record {
	out := make([]Record, n)
	for i := range out {
		out[i] = Record{"Id": i + 1, "Name": fmt.Sprintf("record-%02d", i+1)}
	}
	return out
}

func TestApplyFilterAndSort(t *testing.T) {
	engine := NewEngine(WithSearchFields("Name"))
	result := engine.Apply(peopleCollection(), Query{
		Filters: map[string]string{"Plan": "Pro"},
		Sort:    &Sort{Field: "Name", Direction: Asc},
	})

	assert.Equal(t, []int{1, 3}, ids(result.Rows))
	assert.Equal(t, 2, result.TotalMatched)
	assert.Equal(t, 1, result.TotalPages)
}

func TestApplySearchIsCaseInsensitive(t *testing.T) {
	engine := NewEngine(WithSearchFields("Name"))
	result := engine.Apply(peopleCollection(), Query{Search: "bo"})
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "bob", result.Rows[0]["Name"])

	result = engine.Apply(peopleCollection(), Query{Search: "ALI"})
	assert.Equal(t, []int{1}, ids(result.Rows))
}

func TestApplyWhitespaceSearchKeepsAll(t *testing.T) {
	engine := NewEngine(WithSearchFields("Name"))
	result := engine.Apply(peopleCollection(), Query{Search: "   "})
	assert.Equal(t, 3, result.TotalMatched)
}

func TestApplySearchSkipsNonStringFields(t *testing.T) {
	engine := NewEngine(WithSearchFields("Id", "Name"))
	result := engine.Apply(peopleCollection(), Query{Search: "2"})
	assert.Empty(t, result.Rows)
}

func TestApplyPaginationWindow(t *testing.T) {
	result := Apply(numbered(25), Query{Page: &Page{Index: 2, Size: 10}})
	require.Len(t, result.Rows, 10)
	assert.Equal(t, 3, result.TotalPages)
	assert.Equal(t, 25, result.TotalMatched)
	assert.Equal(t, []int{11, 12, 13, 14, 15, 16, 17, 18, 19, 20}, ids(result.Rows))
}

func TestApplyOutOfRangePageIsEmpty(t *testing.T) {
	result := Apply(numbered(5), Query{Page: &Page{Index: 99, Size: 10}})
	assert.NotNil(t, result.Rows)
	assert.Empty(t, result.Rows)
	assert.Equal(t, 5, result.TotalMatched)
	assert.Equal(t, 1, result.TotalPages)

	result = Apply(numbered(5), Query{Page: &Page{Index: 0, Size: 10}})
	assert.Empty(t, result.Rows)
}

func TestApplyHugePageIndexIsEmpty(t *testing.T) {
	result := Apply(numbered(3), Query{Page: &Page{Index: 1 << 62, Size: 4}})
	assert.Empty(t, result.Rows)
	assert.Equal(t, 3, result.TotalMatched)
	assert.Equal(t, 1, result.TotalPages)

	result = Apply(numbered(3), Query{Page: &Page{Index: 2, Size: 1 << 62}})
	assert.Empty(t, result.Rows)
	assert.Equal(t, 1, result.TotalPages)
}

func TestApplyEmptyCollection(t *testing.T) {
	result := Apply(nil, Query{Page: &Page{Index: 1, Size: 10}})
	assert.Empty(t, result.Rows)
	assert.Equal(t, 0, result.TotalMatched)
	assert.Equal(t, 0, result.TotalPages)

	result = Apply(nil, Query{})
	assert.Equal(t, 0, result.TotalPages)
}

func TestApplyFilterCoercesNumbers(t *testing.T) {
	logs := []Record{
		{"Id": 1, "AppId": float64(3)},
		{"Id": 2, "AppId": 4},
		{"Id": 3, "AppId": 3},
		{"Id": 4},
	}
	result := Apply(logs, Query{Filters: map[string]string{"AppId": "3"}})
	assert.Equal(t, []int{1, 3}, ids(result.Rows))
}

func TestApplyFilterCoercesBooleans(t *testing.T) {
	apps := []Record{
		{"Id": 1, "IsDbConnected": true},
		{"Id": 2, "IsDbConnected": false},
	}
	result := Apply(apps, Query{Filters: map[string]string{"IsDbConnected": "false"}})
	assert.Equal(t, []int{2}, ids(result.Rows))
}

func TestApplyIgnoresEmptyFilterValues(t *testing.T) {
	result := Apply(peopleCollection(), Query{Filters: map[string]string{"Plan": ""}})
	assert.Equal(t, 3, result.TotalMatched)
}

func TestApplyIdentityQuery(t *testing.T) {
	in := peopleCollection()
	result := Apply(in, Query{})
	assert.Equal(t, ids(in), ids(result.Rows))
	assert.Equal(t, 1, result.TotalPages)
}

func TestApplyIsIdempotent(t *testing.T) {
	engine := NewEngine(WithSearchFields("Name"))
	q := Query{Search: "a", Sort: &Sort{Field: "Name", Direction: Desc}, Page: &Page{Index: 1, Size: 2}}
	first := engine.Apply(peopleCollection(), q)
	second := engine.Apply(peopleCollection(), q)
	assert.True(t, reflect.DeepEqual(first, second))
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	in := peopleCollection()
	snapshot := CloneAll(in)
	engine := NewEngine(WithSearchFields("Name"))
	result := engine.Apply(in, Query{Sort: &Sort{Field: "Name", Direction: Desc}})

	assert.Equal(t, snapshot, in)
	result.Rows[0]["Name"] = "mutated"
	assert.Equal(t, snapshot, in)
}

func TestApplyFilterMonotonicity(t *testing.T) {
	engine := NewEngine(WithSearchFields("Name"))
	q1 := Query{Filters: map[string]string{"Plan": "Pro"}}
	q2 := q1.WithFilter("Name", "Alice")
	q3 := q2
	q3.Search = "zzz"

	r1 := ids(engine.Apply(peopleCollection(), q1).Rows)
	r2 := ids(engine.Apply(peopleCollection(), q2).Rows)
	r3 := ids(engine.Apply(peopleCollection(), q3).Rows)
	assert.Subset(t, r1, r2)
	assert.Subset(t, r2, r3)
	assert.Len(t, q1.Filters, 1, "WithFilter must not modify the receiver")
}

func TestApplySortDirections(t *testing.T) {
	records := []Record{
		{"Id": 1, "Score": 0.5},
		{"Id": 2, "Score": -1},
		{"Id": 3},
		{"Id": 4, "Score": 12},
	}
	asc := Apply(records, Query{Sort: &Sort{Field: "Score", Direction: Asc}})
	assert.Equal(t, []int{3, 2, 1, 4}, ids(asc.Rows))

	desc := Apply(records, Query{Sort: &Sort{Field: "Score", Direction: Desc}})
	assert.Equal(t, []int{4, 1, 2, 3}, ids(desc.Rows))

	for i := 0; i+1 < len(asc.Rows); i++ {
		assert.LessOrEqual(t, Compare(asc.Rows[i]["Score"], asc.Rows[i+1]["Score"], false), 0)
	}
}

func TestApplySortIsStable(t *testing.T) {
	records := []Record{
		{"Id": 1, "Plan": "Pro"},
		{"Id": 2, "Plan": "free"},
		{"Id": 3, "Plan": "pro"},
		{"Id": 4, "Plan": "Free"},
		{"Id": 5, "Plan": "PRO"},
	}
	asc := Apply(records, Query{Sort: &Sort{Field: "Plan", Direction: Asc}})
	assert.Equal(t, []int{2, 4, 1, 3, 5}, ids(asc.Rows))

	desc := Apply(records, Query{Sort: &Sort{Field: "Plan", Direction: Desc}})
	assert.Equal(t, []int{1, 3, 5, 2, 4}, ids(desc.Rows))
}

func TestApplySortsDateFieldsAsInstants(t *testing.T) {
	records := []Record{
		{"Id": 1, "CreatedAt": "2024-03-01T10:00:00+02:00"},
		{"Id": 2, "CreatedAt": "2024-03-01T09:30:00Z"},
		{"Id": 3, "CreatedAt": "2024-02-28T23:59:59Z"},
	}
	dated := Apply(records, Query{Sort: &Sort{Field: "CreatedAt", Direction: Asc}}, WithDateFields("CreatedAt"))
	assert.Equal(t, []int{3, 1, 2}, ids(dated.Rows))

	lexical := Apply(records, Query{Sort: &Sort{Field: "CreatedAt", Direction: Asc}})
	assert.Equal(t, []int{3, 2, 1}, ids(lexical.Rows))
}

func TestApplyPriorityRunsBeforeUserSort(t *testing.T) {
	records := []Record{
		{"Id": 1, "Severity": "LOW", "AppName": "alpha"},
		{"Id": 2, "Severity": "HIGH", "AppName": "zeta"},
		{"Id": 3, "Severity": "MEDIUM", "AppName": "beta"},
		{"Id": 4, "AppName": "gamma"},
		{"Id": 5, "Severity": "HIGH", "AppName": "delta"},
	}
	engine := NewEngine(WithPriority("Severity", "HIGH", "MEDIUM", "LOW"))

	prioritized := engine.Apply(records, Query{})
	assert.Equal(t, []int{2, 5, 3, 1, 4}, ids(prioritized.Rows))

	byName := engine.Apply(records, Query{Sort: &Sort{Field: "AppName", Direction: Asc}})
	assert.Equal(t, []int{1, 3, 5, 4, 2}, ids(byName.Rows))
}

func TestApplyPaginationExactness(t *testing.T) {
	for _, total := range []int{0, 1, 9, 10, 11, 25, 30} {
		for _, size := range []int{1, 3, 10} {
			records := numbered(total)
			first := Apply(records, Query{Page: &Page{Index: 1, Size: size}})
			sum := 0
			for idx := 1; idx <= first.TotalPages; idx++ {
				page := Apply(records, Query{Page: &Page{Index: idx, Size: size}})
				if idx < first.TotalPages {
					assert.Len(t, page.Rows, size)
				} else {
					assert.Len(t, page.Rows, total-(first.TotalPages-1)*size)
				}
				sum += len(page.Rows)
			}
			assert.Equal(t, total, sum, "total=%d size=%d", total, size)
		}
	}
}

func TestNilEngineUsesDefaults(t *testing.T) {
	var engine *Engine
	result := engine.Apply(peopleCollection(), Query{Sort: &Sort{Field: "Id", Direction: Desc}})
	assert.Equal(t, []int{3, 2, 1}, ids(result.Rows))
}
