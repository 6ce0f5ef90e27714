package router

import (
	"github.com/pion/webrtc/v3"

	"github.com/oakmix/audioengine/pkg/audio/capture"
	"github.com/oakmix/audioengine/pkg/audio/format"
	"github.com/oakmix/audioengine/pkg/storage"
)

// SinkKind names which concrete encoder or device a DestinationConfig
// opens (spec §6's file outputs plus the live device monitor of §4.E and
// the WebRTC relay of SPEC_FULL §11).
type SinkKind string

const (
	SinkWAV      SinkKind = "wav"
	SinkMP3      SinkKind = "mp3"
	SinkOpus     SinkKind = "opus"
	SinkFLAC     SinkKind = "flac"
	SinkDevice   SinkKind = "device"
	SinkNetRelay SinkKind = "net_relay"
)

// SourceConfig describes one source to activate when the session starts.
type SourceConfig struct {
	ID            string
	Target        capture.Target
	DisplayName   string
	DesiredFormat format.Format
}

// DestinationConfig is the per-destination config surface from spec §6:
// {path, addTimestamp, bitrate?, compressionLevel?, volume, skipSilence,
// silenceHoldoffMs}.
type DestinationConfig struct {
	ID               string
	Kind             SinkKind
	Format           format.Format
	Path             string
	AddTimestamp     bool
	BitrateKbps      int
	CompressionLevel int
	Volume           float32
	SkipSilence      bool
	SilenceHoldoffMs int
	DeviceID         string // sink/device only
	Archive          *ArchiveConfig
	RTPTrack         *webrtc.TrackLocalStaticRTP // net_relay only, caller-constructed and added to a peer connection
}

// ArchiveConfig names a durable off-box copy for a file-based destination:
// once the writer closes its local file(s), they are swept into Store
// (spec §11's "durable file destinations" — an S3-compatible store via
// storage.S3, or any other storage.FileStore). Device destinations ignore
// Archive; there is no local file to copy.
type ArchiveConfig struct {
	Store storage.FileStore
}

// RoutingRuleConfig matches one source (or every source, via SourceID
// == "*") to one destination at a given volume.
type RoutingRuleConfig struct {
	ID            string  `yaml:"id" json:"id"`
	SourceID      string  `yaml:"sourceId" json:"sourceId"`
	DestinationID string  `yaml:"destinationId" json:"destinationId"`
	Volume        float32 `yaml:"volume" json:"volume"`
	SkipSilence   bool    `yaml:"skipSilence,omitempty" json:"skipSilence,omitempty"`
}

// MixedConfig is the session's optional mixed-output collaborator (spec
// §3/§6: mixed:{enabled, destination, driverSourceId?}).
type MixedConfig struct {
	Enabled        bool   `yaml:"enabled" json:"enabled"`
	DestinationID  string `yaml:"destination,omitempty" json:"destination,omitempty"`
	DriverSourceID string `yaml:"driverSourceId,omitempty" json:"driverSourceId,omitempty"` // empty selects the highest-rate enabled source
}

// SessionConfig is the full config surface accepted by StartSession.
type SessionConfig struct {
	Sources      []SourceConfig
	Destinations []DestinationConfig
	Rules        []RoutingRuleConfig
	Mixed        MixedConfig
}
