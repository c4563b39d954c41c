package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const defaultChartHeight = "360px"

var sharedChartCache = NewChartCache(5 * time.Minute)

// SharedChartCache returns the cache used by providers built without WithChartCache.
func SharedChartCache() *ChartCache {
	return sharedChartCache
}

// ThemeResolver selects a chart theme per viewer.
type ThemeResolver func(ViewerContext) string

// EChartsProvider renders server-side chart HTML for the given chart type.
type EChartsProvider struct {
	chartType     string
	cache         RenderCache
	theme         string
	themeResolver ThemeResolver
	assetsHost    string
}

// EChartsProviderOption customizes provider behavior.
type EChartsProviderOption func(*EChartsProvider)

// WithChartCache injects a render cache. A nil cache disables caching.
func WithChartCache(cache RenderCache) EChartsProviderOption {
	return func(p *EChartsProvider) {
		p.cache = cache
	}
}

// WithChartTheme sets a static theme (defaults to Westeros).
func WithChartTheme(theme string) EChartsProviderOption {
	return func(p *EChartsProvider) {
		p.theme = theme
	}
}

// WithChartThemeResolver resolves themes dynamically per viewer.
func WithChartThemeResolver(resolver ThemeResolver) EChartsProviderOption {
	return func(p *EChartsProvider) {
		p.themeResolver = resolver
	}
}

// WithChartAssetsHost rewrites the assets host so ECharts JS loads from a CDN.
func WithChartAssetsHost(host string) EChartsProviderOption {
	return func(p *EChartsProvider) {
		p.assetsHost = host
	}
}

// NewEChartsProvider builds a provider for "bar", "line", "pie" or "donut" charts.
func NewEChartsProvider(chartType string, opts ...EChartsProviderOption) *EChartsProvider {
	p := &EChartsProvider{
		chartType: strings.ToLower(chartType),
		cache:     sharedChartCache,
		theme:     types.ThemeWesteros,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ChartSeries represents a set of values plotted for a given legend entry.
type ChartSeries struct {
	Name   string
	Points []ChartPoint
}

// ChartPoint represents an individual value with an optional label and color.
type ChartPoint struct {
	Label string
	Value float64
	Color string
}

type chartSpec struct {
	Title    string
	Subtitle string
	Theme    string
	XAxis    []string
	Series   []ChartSeries
}

// Fetch converts widget configuration into go-echarts markup.
func (p *EChartsProvider) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	cfg := meta.Configuration
	if cfg == nil {
		cfg = map[string]any{}
	}
	spec := chartSpec{
		Title:    html.EscapeString(stringValue(cfg["title"], "Chart")),
		Subtitle: html.EscapeString(stringValue(cfg["subtitle"], "")),
		Series:   parseChartSeries(cfg["series"]),
		XAxis:    escapeAll(stringSliceValue(cfg["x_axis"])),
		Theme:    p.resolveTheme(meta.Viewer),
	}
	if len(spec.Series) == 0 {
		return nil, fmt.Errorf("chart series is required")
	}
	if len(spec.XAxis) == 0 {
		spec.XAxis = inferredAxisLabels(spec.Series)
	}
	if override := strings.TrimSpace(stringValue(cfg["theme"], "")); override != "" {
		spec.Theme = override
	}
	return p.renderData(meta.Definition.Code, spec)
}

func (p *EChartsProvider) renderData(code string, spec chartSpec) (WidgetData, error) {
	renderFn := func() (string, error) {
		return p.render(spec)
	}
	var (
		markup string
		err    error
	)
	if p.cache != nil {
		key := fmt.Sprintf("%s:%s:%s", code, p.chartType, dataHash(spec))
		markup, err = p.cache.GetOrRender(key, renderFn)
	} else {
		markup, err = renderFn()
	}
	if err != nil {
		return nil, err
	}
	return WidgetData{
		"chart_html": markup,
		"chart_type": p.chartType,
		"title":      spec.Title,
		"subtitle":   spec.Subtitle,
		"theme":      spec.Theme,
	}, nil
}

func (p *EChartsProvider) render(spec chartSpec) (string, error) {
	switch p.chartType {
	case "bar":
		bar := charts.NewBar()
		bar.SetGlobalOptions(p.globalChartOptions(spec)...)
		bar.SetXAxis(spec.XAxis)
		for _, s := range spec.Series {
			bar.AddSeries(s.Name, toBarData(s.Points))
		}
		return renderChart(bar)
	case "line":
		line := charts.NewLine()
		line.SetGlobalOptions(p.globalChartOptions(spec)...)
		line.SetXAxis(spec.XAxis)
		for _, s := range spec.Series {
			line.AddSeries(s.Name, toLineData(s.Points))
		}
		line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
		return renderChart(line)
	case "pie", "donut":
		pie := charts.NewPie()
		pie.SetGlobalOptions(p.globalChartOptions(spec)...)
		var seriesOpts []charts.SeriesOpts
		if p.chartType == "donut" {
			seriesOpts = append(seriesOpts,
				charts.WithPieChartOpts(opts.PieChart{Radius: []string{"40%", "70%"}}),
				charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {d}%"}),
			)
		}
		for _, s := range spec.Series {
			pie.AddSeries(s.Name, toPieData(s.Points), seriesOpts...)
		}
		return renderChart(pie)
	default:
		return "", fmt.Errorf("unsupported chart type: %s", p.chartType)
	}
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (p *EChartsProvider) globalChartOptions(spec chartSpec) []charts.GlobalOpts {
	initOpts := opts.Initialization{
		Theme:  spec.Theme,
		Width:  "100%",
		Height: defaultChartHeight,
	}
	if p.assetsHost != "" {
		initOpts.AssetsHost = p.assetsHost
	}
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: spec.Title, Subtitle: spec.Subtitle}),
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	}
}

func (p *EChartsProvider) resolveTheme(viewer ViewerContext) string {
	if p.themeResolver != nil {
		if theme := p.themeResolver(viewer); theme != "" {
			return theme
		}
	}
	if p.theme != "" {
		return p.theme
	}
	return types.ThemeWesteros
}

func itemStyle(color string) *opts.ItemStyle {
	if color == "" {
		return nil
	}
	return &opts.ItemStyle{Color: color}
}

func toBarData(points []ChartPoint) []opts.BarData {
	data := make([]opts.BarData, len(points))
	for i, point := range points {
		data[i] = opts.BarData{
			Name:      point.Label,
			Value:     point.Value,
			ItemStyle: itemStyle(point.Color),
		}
	}
	return data
}

func toLineData(points []ChartPoint) []opts.LineData {
	data := make([]opts.LineData, len(points))
	for i, point := range points {
		data[i] = opts.LineData{
			Name:  point.Label,
			Value: point.Value,
		}
	}
	return data
}

func toPieData(points []ChartPoint) []opts.PieData {
	data := make([]opts.PieData, len(points))
	for i, point := range points {
		name := point.Label
		if name == "" {
			name = fmt.Sprintf("Slice %d", i+1)
		}
		data[i] = opts.PieData{
			Name:      name,
			Value:     point.Value,
			ItemStyle: itemStyle(point.Color),
		}
	}
	return data
}

func parseChartSeries(v any) []ChartSeries {
	var items []map[string]any
	switch val := v.(type) {
	case []map[string]any:
		items = val
	case []any:
		for _, item := range val {
			if m, ok := item.(map[string]any); ok {
				items = append(items, m)
			}
		}
	default:
		return nil
	}
	out := make([]ChartSeries, 0, len(items))
	for _, item := range items {
		series := ChartSeries{
			Name:   html.EscapeString(stringValue(item["name"], "Series")),
			Points: parseChartPoints(item["data"]),
		}
		if len(series.Points) > 0 {
			out = append(out, series)
		}
	}
	return out
}

func parseChartPoints(v any) []ChartPoint {
	switch value := v.(type) {
	case []float64:
		points := make([]ChartPoint, len(value))
		for i, val := range value {
			points[i] = ChartPoint{Value: val}
		}
		return points
	case []int:
		points := make([]ChartPoint, len(value))
		for i, val := range value {
			points[i] = ChartPoint{Value: float64(val)}
		}
		return points
	case []map[string]any:
		points := make([]ChartPoint, 0, len(value))
		for _, item := range value {
			points = append(points, pointFromMap(item))
		}
		return points
	case []any:
		points := make([]ChartPoint, 0, len(value))
		for _, item := range value {
			if m, ok := item.(map[string]any); ok {
				points = append(points, pointFromMap(m))
				continue
			}
			points = append(points, ChartPoint{Value: float64Value(item)})
		}
		return points
	default:
		return nil
	}
}

func pointFromMap(m map[string]any) ChartPoint {
	return ChartPoint{
		Label: html.EscapeString(stringValue(m["name"], "")),
		Value: float64Value(m["value"]),
		Color: stringValue(m["color"], ""),
	}
}

func inferredAxisLabels(series []ChartSeries) []string {
	var candidate []string
	longest := 0
	for _, s := range series {
		if len(s.Points) <= longest {
			continue
		}
		longest = len(s.Points)
		candidate = make([]string, len(s.Points))
		for i, point := range s.Points {
			if point.Label != "" {
				candidate[i] = point.Label
			} else {
				candidate[i] = fmt.Sprintf("Item %d", i+1)
			}
		}
	}
	return candidate
}

func escapeAll(values []string) []string {
	for i, v := range values {
		values[i] = html.EscapeString(v)
	}
	return values
}

func stringSliceValue(v any) []string {
	switch val := v.(type) {
	case []string:
		return append([]string(nil), val...)
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func stringValue(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

func intValue(v any, fallback int) int {
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return int(n)
		}
	case string:
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func float64Value(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return 0
}

// BreakdownSource supplies chat status counts per category.
type BreakdownSource interface {
	StatusBreakdown(ctx context.Context) ([]CategoryCount, error)
}

// StatusChartProvider renders the chat status distribution as a donut chart.
type StatusChartProvider struct {
	source   BreakdownSource
	renderer *EChartsProvider
}

// NewStatusChartProvider builds the status chart provider.
func NewStatusChartProvider(source BreakdownSource, renderer *EChartsProvider) *StatusChartProvider {
	if renderer == nil {
		renderer = NewEChartsProvider("donut")
	}
	return &StatusChartProvider{source: source, renderer: renderer}
}

// Fetch renders the breakdown. An empty breakdown yields no chart markup.
func (p *StatusChartProvider) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	if p.source == nil {
		return nil, fmt.Errorf("status chart provider: source is required")
	}
	counts, err := p.source.StatusBreakdown(ctx)
	if err != nil {
		return nil, fmt.Errorf("status chart provider: %w", err)
	}
	title := stringValue(meta.Configuration["title"], "Status Distribution")
	if len(counts) == 0 {
		return WidgetData{"title": title, "empty": true, "breakdown": counts}, nil
	}
	points := make([]ChartPoint, len(counts))
	for i, c := range counts {
		points[i] = ChartPoint{Label: c.Label, Value: float64(c.Count), Color: c.Color}
	}
	spec := chartSpec{
		Title:  html.EscapeString(title),
		Theme:  p.renderer.resolveTheme(meta.Viewer),
		Series: []ChartSeries{{Name: "Statuses", Points: points}},
	}
	data, err := p.renderer.renderData(meta.Definition.Code, spec)
	if err != nil {
		return nil, err
	}
	data["breakdown"] = counts
	return data, nil
}
