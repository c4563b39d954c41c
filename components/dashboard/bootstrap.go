package dashboard

import (
	"errors"
	"fmt"
)

// Bootstrap builds a service whose widget registry has the defaults, the
// global widget hooks and every manifest in manifestPaths applied, in that
// order.
func Bootstrap(opts Options, manifestPaths ...string) (*Service, error) {
	if opts.Apps == nil || opts.Users == nil || opts.Logs == nil || opts.Comments == nil {
		return nil, errors.New("dashboard: apps, users, logs and comments repositories are required")
	}
	reg, ok := opts.Providers.(*Registry)
	if opts.Providers == nil {
		reg = NewRegistry()
		opts.Providers = reg
		ok = true
	}
	if len(manifestPaths) > 0 && !ok {
		return nil, fmt.Errorf("dashboard: manifests require a *Registry, got %T", opts.Providers)
	}
	for _, path := range manifestPaths {
		if path == "" {
			continue
		}
		if _, err := reg.LoadManifestFile(path); err != nil {
			return nil, err
		}
	}
	return NewService(opts), nil
}
