package config

import "testing"

func TestByNameFindsConnector(t *testing.T) {
	cfg := Config{Connectors: []ConnectorConfig{
		{Name: "plant-mqtt", Kind: "mqtt"},
		{Name: "dashboard-ws", Kind: "websocket"},
	}}

	cc, ok := cfg.ByName("dashboard-ws")
	if !ok || cc.Kind != "websocket" {
		t.Fatalf("expected to find dashboard-ws, got %+v ok=%v", cc, ok)
	}

	if _, ok := cfg.ByName("missing"); ok {
		t.Fatal("expected missing connector to not be found")
	}
}

func TestLoadMissingFileReturnsEmptyConfig(t *testing.T) {
	cfg, err := Load("", t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error loading absent config: %v", err)
	}
	if len(cfg.Connectors) != 0 {
		t.Fatalf("expected no connectors from an empty search path, got %+v", cfg.Connectors)
	}
}
