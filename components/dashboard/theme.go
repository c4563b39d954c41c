package dashboard

import (
	"strings"

	"github.com/go-echarts/go-echarts/v2/types"
)

// Theme variants a viewer can pick.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// ChartThemeForVariant maps a UI theme variant to a go-echarts theme. Unknown
// variants return "" so the provider default applies.
func ChartThemeForVariant(variant string) string {
	switch strings.ToLower(strings.TrimSpace(variant)) {
	case ThemeDark:
		return types.ThemeWonderland
	case ThemeLight:
		return types.ThemeWesteros
	}
	return ""
}

// VariantThemeResolver resolves chart themes from ViewerContext.Theme.
func VariantThemeResolver(viewer ViewerContext) string {
	return ChartThemeForVariant(viewer.Theme)
}
