package router

import (
	"encoding/json"
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/oakmix/audioengine/pkg/audio/apperr"
	"github.com/oakmix/audioengine/pkg/audio/capture"
	"github.com/oakmix/audioengine/pkg/audio/format"
	"github.com/oakmix/audioengine/pkg/storage"
)

// newLocalArchiveStore opens a storage.Local rooted at dir for a
// destination's ArchiveDir shorthand. Richer backends (storage.S3) are
// wired programmatically via ArchiveConfig.Store directly; the YAML
// surface only covers the common local-directory case.
func newLocalArchiveStore(dir string) (storage.FileStore, error) {
	return storage.NewLocal(dir)
}

// ConfigDocument is the wire representation of a SessionConfig: what
// cmd/audioengine's run/validate commands read from YAML (spec §7's
// startSession config surface), schema-checked before ToSessionConfig
// ever touches a capture.Target or format.Format. net_relay destinations
// are not expressible here — an RTPTrack only exists once a peer
// connection is live, so those are always added at runtime via
// Session.AddDestination, never from a static file.
type ConfigDocument struct {
	Sources      []SourceDocument      `yaml:"sources" json:"sources"`
	Destinations []DestinationDocument `yaml:"destinations" json:"destinations"`
	Rules        []RoutingRuleConfig   `yaml:"rules,omitempty" json:"rules,omitempty"`
	Mixed        MixedConfig           `yaml:"mixed,omitempty" json:"mixed,omitempty"`
}

// SourceDocument is one entry of ConfigDocument.Sources.
type SourceDocument struct {
	ID            string         `yaml:"id" json:"id"`
	DisplayName   string         `yaml:"displayName,omitempty" json:"displayName,omitempty"`
	Target        TargetDocument `yaml:"target" json:"target"`
	DesiredFormat FormatDocument `yaml:"desiredFormat" json:"desiredFormat"`
}

// TargetDocument names a capture.Target by kind string plus whichever of
// PID/DeviceID that kind needs.
type TargetDocument struct {
	Kind     string `yaml:"kind" json:"kind"` // system_default_loopback, process_loopback, device_capture, device_loopback
	PID      int    `yaml:"pid,omitempty" json:"pid,omitempty"`
	DeviceID string `yaml:"deviceId,omitempty" json:"deviceId,omitempty"`
}

func (t TargetDocument) toTarget() (capture.Target, error) {
	switch t.Kind {
	case "system_default_loopback":
		return capture.SystemDefaultLoopback{}, nil
	case "process_loopback":
		if t.PID <= 0 {
			return nil, fmt.Errorf("target %q requires a positive pid", t.Kind)
		}
		return capture.ProcessLoopback{PID: t.PID}, nil
	case "device_capture":
		if t.DeviceID == "" {
			return nil, fmt.Errorf("target %q requires a deviceId", t.Kind)
		}
		return capture.DeviceCapture{DeviceID: t.DeviceID}, nil
	case "device_loopback":
		if t.DeviceID == "" {
			return nil, fmt.Errorf("target %q requires a deviceId", t.Kind)
		}
		return capture.DeviceLoopback{DeviceID: t.DeviceID}, nil
	default:
		return nil, fmt.Errorf("unknown target kind %q", t.Kind)
	}
}

// FormatDocument is the YAML/JSON projection of format.Format.
type FormatDocument struct {
	Channels     int    `yaml:"channels" json:"channels"`
	SampleRate   int    `yaml:"sampleRate" json:"sampleRate"`
	SampleLayout string `yaml:"sampleLayout" json:"sampleLayout"` // int16, int24, int32, float32
}

func (d FormatDocument) toFormat() (format.Format, error) {
	layout, err := parseSampleLayout(d.SampleLayout)
	if err != nil {
		return format.Format{}, err
	}
	f := format.Format{Channels: d.Channels, SampleRate: d.SampleRate, SampleLayout: layout}
	if err := f.Validate(); err != nil {
		return format.Format{}, err
	}
	return f, nil
}

func parseSampleLayout(s string) (format.Layout, error) {
	switch s {
	case "int16", "":
		return format.Int16, nil
	case "int24":
		return format.Int24, nil
	case "int32":
		return format.Int32, nil
	case "float32":
		return format.Float32, nil
	default:
		return 0, fmt.Errorf("unknown sample layout %q", s)
	}
}

// DestinationDocument is one entry of ConfigDocument.Destinations.
type DestinationDocument struct {
	ID               string         `yaml:"id" json:"id"`
	Kind             string         `yaml:"kind" json:"kind"` // wav, mp3, opus, flac, device
	Format           FormatDocument `yaml:"format" json:"format"`
	Path             string         `yaml:"path,omitempty" json:"path,omitempty"`
	AddTimestamp     bool           `yaml:"addTimestamp,omitempty" json:"addTimestamp,omitempty"`
	BitrateKbps      int            `yaml:"bitrateKbps,omitempty" json:"bitrateKbps,omitempty"`
	CompressionLevel int            `yaml:"compressionLevel,omitempty" json:"compressionLevel,omitempty"`
	// Volume is a pointer so an omitted field (nil, defaults to 1.0 in
	// ToSessionConfig) is distinguishable from an explicit `volume: 0`
	// mute — a plain float32 can't tell "unset" from "author wants
	// silence" since both decode to the zero value.
	Volume           *float32       `yaml:"volume,omitempty" json:"volume,omitempty"`
	SkipSilence      bool           `yaml:"skipSilence,omitempty" json:"skipSilence,omitempty"`
	SilenceHoldoffMs int            `yaml:"silenceHoldoffMs,omitempty" json:"silenceHoldoffMs,omitempty"`
	DeviceID         string         `yaml:"deviceId,omitempty" json:"deviceId,omitempty"`
	ArchiveDir       string         `yaml:"archiveDir,omitempty" json:"archiveDir,omitempty"` // non-empty wraps the sink in archive.Sink against a storage.Local at this directory
}

// ToSessionConfig converts a schema-checked ConfigDocument into the
// Go-native SessionConfig StartSession accepts.
func (doc ConfigDocument) ToSessionConfig() (SessionConfig, error) {
	cfg := SessionConfig{
		Rules: doc.Rules,
		Mixed: doc.Mixed,
	}

	for _, sd := range doc.Sources {
		target, err := sd.Target.toTarget()
		if err != nil {
			return SessionConfig{}, fmt.Errorf("source %s: %w", sd.ID, err)
		}
		desired, err := sd.DesiredFormat.toFormat()
		if err != nil {
			return SessionConfig{}, fmt.Errorf("source %s: %w", sd.ID, err)
		}
		cfg.Sources = append(cfg.Sources, SourceConfig{
			ID:            sd.ID,
			Target:        target,
			DisplayName:   sd.DisplayName,
			DesiredFormat: desired,
		})
	}

	for _, dd := range doc.Destinations {
		f, err := dd.Format.toFormat()
		if err != nil {
			return SessionConfig{}, fmt.Errorf("destination %s: %w", dd.ID, err)
		}
		volume := float32(1.0)
		if dd.Volume != nil {
			volume = *dd.Volume
		}
		dc := DestinationConfig{
			ID:               dd.ID,
			Kind:             SinkKind(dd.Kind),
			Format:           f,
			Path:             dd.Path,
			AddTimestamp:     dd.AddTimestamp,
			BitrateKbps:      dd.BitrateKbps,
			CompressionLevel: dd.CompressionLevel,
			Volume:           volume,
			SkipSilence:      dd.SkipSilence,
			SilenceHoldoffMs: dd.SilenceHoldoffMs,
			DeviceID:         dd.DeviceID,
		}
		if dd.ArchiveDir != "" {
			store, err := newLocalArchiveStore(dd.ArchiveDir)
			if err != nil {
				return SessionConfig{}, fmt.Errorf("destination %s: %w", dd.ID, err)
			}
			dc.Archive = &ArchiveConfig{Store: store}
		}
		cfg.Destinations = append(cfg.Destinations, dc)
	}

	return cfg, nil
}

// configSchema is generated once from ConfigDocument's struct shape and
// reused by every ParseConfigDocument call.
var configSchema = mustConfigSchema()

func mustConfigSchema() *jsonschema.Resolved {
	s, err := jsonschema.For[ConfigDocument](nil)
	if err != nil {
		panic(fmt.Sprintf("router: building config schema: %v", err))
	}
	resolved, err := s.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("router: resolving config schema: %v", err))
	}
	return resolved
}

// ParseConfigDocument decodes YAML (or JSON, a YAML subset) session config
// bytes, validates the result against configSchema, and returns the parsed
// document. Use '-' as a filename convention in callers that accept stdin;
// this function only handles the bytes.
func ParseConfigDocument(data []byte) (ConfigDocument, error) {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return ConfigDocument{}, &apperr.ConfigRejected{Field: "config", Reason: fmt.Sprintf("invalid yaml: %v", err)}
	}

	// jsonschema.Resolved.Validate expects instances built from
	// encoding/json's number/bool/string/map/slice shapes, which is what
	// json.Unmarshal (not goccy/go-yaml's richer decode) produces.
	jsonBytes, err := json.Marshal(generic)
	if err != nil {
		return ConfigDocument{}, fmt.Errorf("router: re-marshal config to json: %w", err)
	}
	var instance any
	if err := json.Unmarshal(jsonBytes, &instance); err != nil {
		return ConfigDocument{}, fmt.Errorf("router: decode config json: %w", err)
	}

	if err := configSchema.Validate(instance); err != nil {
		return ConfigDocument{}, &apperr.ConfigRejected{Field: "config", Reason: err.Error()}
	}

	var doc ConfigDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return ConfigDocument{}, &apperr.ConfigRejected{Field: "config", Reason: fmt.Sprintf("invalid yaml: %v", err)}
	}
	return doc, nil
}
