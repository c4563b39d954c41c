package tabular

// IDField is the identity field every record carries.
const IDField = "Id"

// Record is a single row: field name to scalar value.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ID returns the record identity as an int.
func (r Record) ID() (int, bool) {
	v, ok := r[IDField]
	if !ok {
		return 0, false
	}
	f, ok := toFloat(v)
	if !ok || f < 0 {
		return 0, false
	}
	return int(f), true
}

// String returns the string form of a field, or "" when absent.
func (r Record) String(field string) string {
	s, _ := toString(r[field])
	return s
}

// CloneAll copies a slice of records, cloning each record.
func CloneAll(records []Record) []Record {
	out := make([]Record, len(records))
	for i, rec := range records {
		out[i] = rec.Clone()
	}
	return out
}
