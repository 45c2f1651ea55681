package mqttconnector

import "testing"

func TestNewAppliesDefaultTimeout(t *testing.T) {
	c := New(Config{Name: "plant-mqtt", BrokerURL: "tcp://localhost:1883", RootTopic: "plant/cell-7"})
	if c.cfg.ConnectTimeout <= 0 {
		t.Fatal("expected a default connect timeout to be applied")
	}
	if c.Name() != "plant-mqtt" {
		t.Fatalf("unexpected name: %s", c.Name())
	}
}

func TestNewKeepsExplicitTimeout(t *testing.T) {
	c := New(Config{Name: "plant-mqtt", ConnectTimeout: 2})
	if c.cfg.ConnectTimeout != 2 {
		t.Fatalf("expected explicit timeout to be preserved, got %v", c.cfg.ConnectTimeout)
	}
}
