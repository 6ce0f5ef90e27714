package router

import "testing"

func TestValidateConfigRejectsEmptySources(t *testing.T) {
	err := validateConfig(SessionConfig{
		Destinations: []DestinationConfig{{ID: "d1", Kind: SinkWAV}},
	})
	if err == nil {
		t.Fatal("expected ConfigRejected for zero sources")
	}
}

func TestValidateConfigRejectsNoDestinationsAndNoMixedOutput(t *testing.T) {
	err := validateConfig(SessionConfig{
		Sources: []SourceConfig{{ID: "s1"}},
	})
	if err == nil {
		t.Fatal("expected ConfigRejected when there are no destinations and mixed output is disabled")
	}
}

func TestValidateConfigAcceptsMixedOutputOnlyConfig(t *testing.T) {
	err := validateConfig(SessionConfig{
		Sources:      []SourceConfig{{ID: "s1"}},
		Destinations: []DestinationConfig{{ID: "mixout", Kind: SinkWAV}},
		Mixed:        MixedConfig{Enabled: true, DestinationID: "mixout"},
	})
	if err != nil {
		t.Fatalf("expected mixed-only config to validate, got %v", err)
	}
}

func TestValidateConfigRejectsMixedOutputWithoutDestination(t *testing.T) {
	err := validateConfig(SessionConfig{
		Sources: []SourceConfig{{ID: "s1"}},
		Mixed:   MixedConfig{Enabled: true},
	})
	if err == nil {
		t.Fatal("expected ConfigRejected when mixed output is enabled with no destination")
	}
}

func TestValidateConfigRejectsDuplicateSourceIDs(t *testing.T) {
	err := validateConfig(SessionConfig{
		Sources: []SourceConfig{{ID: "s1"}, {ID: "s1"}},
		Mixed:   MixedConfig{Enabled: true},
	})
	if err == nil {
		t.Fatal("expected ConfigRejected for duplicate source ids")
	}
}

func TestValidateConfigRejectsRuleReferencingUnknownDestination(t *testing.T) {
	err := validateConfig(SessionConfig{
		Sources:      []SourceConfig{{ID: "s1"}},
		Destinations: []DestinationConfig{{ID: "d1", Kind: SinkWAV}},
		Rules:        []RoutingRuleConfig{{ID: "r1", SourceID: "s1", DestinationID: "missing"}},
	})
	if err == nil {
		t.Fatal("expected ConfigRejected for rule referencing unknown destination")
	}
}
