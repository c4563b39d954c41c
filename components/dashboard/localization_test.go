package dashboard

import "testing"

func TestResolveLocalizedValue(t *testing.T) {
	values := map[string]string{
		"en":    "Dashboard",
		"es":    "Tablero",
		"es-mx": "Panel",
	}
	if got := ResolveLocalizedValue(values, "es-mx", "fallback"); got != "Panel" {
		t.Fatalf("expected region-specific match, got %q", got)
	}
	if got := ResolveLocalizedValue(values, "es_AR", "fallback"); got != "Tablero" {
		t.Fatalf("expected base locale fallback, got %q", got)
	}
	if got := ResolveLocalizedValue(values, "fr", "Dashboard"); got != "Dashboard" {
		t.Fatalf("expected fallback for missing locale, got %q", got)
	}
	if got := ResolveLocalizedValue(nil, "en", "Fallback"); got != "Fallback" {
		t.Fatalf("expected fallback for empty map, got %q", got)
	}
}

func TestWidgetDefinitionLocalizedNames(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterDefinition(WidgetDefinition{
		Code:                 "insights.widget.localized",
		Name:                 "Recent Activity",
		Description:          "Latest chats",
		NameLocalized:        map[string]string{" ES ": "Actividad Reciente", "fr": ""},
		DescriptionLocalized: map[string]string{"es": "Últimas conversaciones"},
	}); err != nil {
		t.Fatalf("RegisterDefinition returned error: %v", err)
	}
	def, _ := reg.Definition("insights.widget.localized")
	if got := def.NameForLocale("es-CO"); got != "Actividad Reciente" {
		t.Fatalf("expected spanish name, got %q", got)
	}
	if got := def.NameForLocale("fr"); got != "Recent Activity" {
		t.Fatalf("expected default name for empty translation, got %q", got)
	}
	if got := def.DescriptionForLocale("es"); got != "Últimas conversaciones" {
		t.Fatalf("expected spanish description, got %q", got)
	}
}

func TestManifestMergesLocalizedNames(t *testing.T) {
	reg := NewRegistry()
	err := reg.LoadManifest([]WidgetManifest{{
		Definition: WidgetDefinition{
			Code:          WidgetMetrics,
			NameLocalized: map[string]string{"es": "Métricas"},
		},
	}})
	if err != nil {
		t.Fatalf("LoadManifest returned error: %v", err)
	}
	def, _ := reg.Definition(WidgetMetrics)
	if def.Name != "Key Metrics" {
		t.Fatalf("expected base name preserved, got %q", def.Name)
	}
	if got := def.NameForLocale("es"); got != "Métricas" {
		t.Fatalf("expected merged localized name, got %q", got)
	}
}
