package router

import "github.com/oakmix/audioengine/pkg/audio/apperr"

// ValidateSessionConfig runs StartSession's admission checks against cfg
// without constructing any source or destination — the same validation
// cmd/audioengine's validate command runs, exported for callers that want
// to check a config before committing to opening real devices/files.
func ValidateSessionConfig(cfg SessionConfig) error {
	return validateConfig(cfg)
}

// validateConfig enforces spec §4.H's startSession admission rules:
// distinct IDs within each group, at least one source, at least one
// destination or mixed-output enabled.
func validateConfig(cfg SessionConfig) error {
	if len(cfg.Sources) == 0 {
		return &apperr.ConfigRejected{Field: "sources", Reason: "at least one source is required"}
	}
	if len(cfg.Destinations) == 0 && !cfg.Mixed.Enabled {
		return &apperr.ConfigRejected{Field: "destinations", Reason: "at least one destination or mixed output is required"}
	}

	seenSources := make(map[string]bool, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		if seenSources[sc.ID] {
			return &apperr.ConfigRejected{Field: "sources.id", Reason: "duplicate source id " + sc.ID}
		}
		seenSources[sc.ID] = true
	}

	seenDestinations := make(map[string]bool, len(cfg.Destinations))
	for _, dc := range cfg.Destinations {
		if seenDestinations[dc.ID] {
			return &apperr.ConfigRejected{Field: "destinations.id", Reason: "duplicate destination id " + dc.ID}
		}
		seenDestinations[dc.ID] = true
	}

	seenRules := make(map[string]bool, len(cfg.Rules))
	for _, rc := range cfg.Rules {
		if seenRules[rc.ID] {
			return &apperr.ConfigRejected{Field: "rules.id", Reason: "duplicate rule id " + rc.ID}
		}
		seenRules[rc.ID] = true
		if rc.SourceID != "*" && !seenSources[rc.SourceID] {
			return &apperr.ConfigRejected{Field: "rules.sourceId", Reason: "rule references unknown source " + rc.SourceID}
		}
		if !seenDestinations[rc.DestinationID] {
			return &apperr.ConfigRejected{Field: "rules.destinationId", Reason: "rule references unknown destination " + rc.DestinationID}
		}
	}

	if cfg.Mixed.Enabled {
		if cfg.Mixed.DestinationID == "" {
			return &apperr.ConfigRejected{Field: "mixed.destination", Reason: "mixed output requires a destination"}
		}
		if !seenDestinations[cfg.Mixed.DestinationID] {
			return &apperr.ConfigRejected{Field: "mixed.destination", Reason: "mixed output references unknown destination " + cfg.Mixed.DestinationID}
		}
		if cfg.Mixed.DriverSourceID != "" && !seenSources[cfg.Mixed.DriverSourceID] {
			return &apperr.ConfigRejected{Field: "mixed.driverSourceId", Reason: "mixed output references unknown source " + cfg.Mixed.DriverSourceID}
		}
	}

	return nil
}
