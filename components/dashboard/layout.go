package dashboard

func applyOrderOverride(defs []WidgetDefinition, order []string) []WidgetDefinition {
	if len(order) == 0 {
		return defs
	}
	index := make(map[string]WidgetDefinition, len(defs))
	for _, d := range defs {
		index[d.Code] = d
	}
	result := make([]WidgetDefinition, 0, len(defs))
	seen := make(map[string]struct{}, len(order))
	for _, code := range order {
		if _, dup := seen[code]; dup {
			continue
		}
		if d, ok := index[code]; ok {
			result = append(result, d)
			seen[code] = struct{}{}
		}
	}
	for _, d := range defs {
		if _, ok := seen[d.Code]; !ok {
			result = append(result, d)
		}
	}
	return result
}

func applyHiddenFilter(defs []WidgetDefinition, hidden map[string]bool) []WidgetDefinition {
	if len(hidden) == 0 {
		return defs
	}
	out := make([]WidgetDefinition, 0, len(defs))
	for _, d := range defs {
		if !hidden[d.Code] {
			out = append(out, d)
		}
	}
	return out
}
