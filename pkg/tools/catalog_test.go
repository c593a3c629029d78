package tools

import "testing"

func TestCatalogHasNoDuplicateNames(t *testing.T) {
	seen := make(map[string]bool, len(Catalog))
	for _, spec := range Catalog {
		if seen[spec.Name] {
			t.Fatalf("duplicate tool name in catalog: %s", spec.Name)
		}
		seen[spec.Name] = true
	}
}

func TestCatalogCountMatchesQueueRoutedTools(t *testing.T) {
	// 46 queue-routed tools + list_sessions/switch_session/get_active_session
	// (registered separately in register.go, bypassing the queue) = 49.
	if len(Catalog) != 46 {
		t.Fatalf("expected 46 queue-routed tools, got %d", len(Catalog))
	}
}

func TestTimeoutClassDuration(t *testing.T) {
	if standard.Duration() >= extended.Duration() {
		t.Fatal("expected standard timeout to be shorter than extended")
	}
}
