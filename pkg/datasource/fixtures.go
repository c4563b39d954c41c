package datasource

import (
	"embed"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/goliatone/go-appinsights/components/dashboard"
	"github.com/goliatone/go-appinsights/components/tabular"
)

//go:embed fixtures/*.json
var fixtureFS embed.FS

// Fixtures is the sample data set served by the in-memory stores.
type Fixtures struct {
	Apps     []tabular.Record
	Users    []tabular.Record
	Logs     []tabular.Record
	Comments []tabular.Record
}

// LoadFixtures decodes the embedded sample data.
func LoadFixtures() (Fixtures, error) {
	var f Fixtures
	for name, dst := range map[string]*[]tabular.Record{
		dashboard.CollectionApps:     &f.Apps,
		dashboard.CollectionUsers:    &f.Users,
		dashboard.CollectionLogs:     &f.Logs,
		dashboard.CollectionComments: &f.Comments,
	} {
		records, err := DecodeRecords(fixtureFS, "fixtures/"+name+".json")
		if err != nil {
			return Fixtures{}, err
		}
		*dst = records
	}
	return f, nil
}

// ReadFileFS is the subset of fs.ReadFileFS DecodeRecords needs.
type ReadFileFS interface {
	ReadFile(name string) ([]byte, error)
}

// DecodeRecords reads a JSON array of records from fsys.
func DecodeRecords(fsys ReadFileFS, path string) ([]tabular.Record, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("datasource: read %s: %w", path, err)
	}
	return ParseRecords(data)
}

// ParseRecords decodes a JSON array of records.
func ParseRecords(data []byte) ([]tabular.Record, error) {
	var records []tabular.Record
	if err := sonic.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("datasource: decode records: %w", err)
	}
	return records, nil
}

// Rebase shifts every date field so the newest timestamp in the set lands on
// now, keeping the relative spacing of the sample data.
func (f Fixtures) Rebase(now time.Time) Fixtures {
	schemas := dashboard.DefaultSchemas()
	sets := map[string][]tabular.Record{
		dashboard.CollectionApps:     f.Apps,
		dashboard.CollectionUsers:    f.Users,
		dashboard.CollectionLogs:     f.Logs,
		dashboard.CollectionComments: f.Comments,
	}
	var latest time.Time
	for name, records := range sets {
		for _, field := range dateFields(schemas[name]) {
			for _, rec := range records {
				if ts, ok := parseTime(rec[field]); ok && ts.After(latest) {
					latest = ts
				}
			}
		}
	}
	if latest.IsZero() {
		return f
	}
	shift := now.Sub(latest)
	out := Fixtures{}
	for name, records := range sets {
		fields := dateFields(schemas[name])
		shifted := tabular.CloneAll(records)
		for _, rec := range shifted {
			for _, field := range fields {
				if ts, ok := parseTime(rec[field]); ok {
					rec[field] = ts.Add(shift).UTC().Format(time.RFC3339)
				}
			}
		}
		switch name {
		case dashboard.CollectionApps:
			out.Apps = shifted
		case dashboard.CollectionUsers:
			out.Users = shifted
		case dashboard.CollectionLogs:
			out.Logs = shifted
		case dashboard.CollectionComments:
			out.Comments = shifted
		}
	}
	return out
}

// Repositories builds one MemoryStore per collection.
func (f Fixtures) Repositories(latency Latency) Repositories {
	return Repositories{
		Apps:     NewMemoryStore("App", f.Apps, latency),
		Users:    NewMemoryStore("User", f.Users, latency),
		Logs:     NewMemoryStore("Log", f.Logs, latency),
		Comments: NewMemoryStore("Comment", f.Comments, latency),
	}
}

// Repositories groups the per-collection stores.
type Repositories struct {
	Apps     dashboard.Repository
	Users    dashboard.Repository
	Logs     dashboard.Repository
	Comments dashboard.Repository
}

// Apply copies the repositories into service options.
func (r Repositories) Apply(opts *dashboard.Options) {
	opts.Apps = r.Apps
	opts.Users = r.Users
	opts.Logs = r.Logs
	opts.Comments = r.Comments
}

// Lookup returns the repository of a collection.
func (r Repositories) Lookup(collection string) (dashboard.Repository, bool) {
	switch collection {
	case dashboard.CollectionApps:
		return r.Apps, r.Apps != nil
	case dashboard.CollectionUsers:
		return r.Users, r.Users != nil
	case dashboard.CollectionLogs:
		return r.Logs, r.Logs != nil
	case dashboard.CollectionComments:
		return r.Comments, r.Comments != nil
	}
	return nil, false
}

func dateFields(schema dashboard.CollectionSchema) []string {
	var out []string
	for _, f := range schema.Table.Fields {
		if f.Date {
			out = append(out, f.Key)
		}
	}
	return out
}

func parseTime(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
