package router

import (
	"fmt"
	"time"

	"github.com/oakmix/audioengine/pkg/audio/apperr"
	"github.com/oakmix/audioengine/pkg/audio/archive"
	"github.com/oakmix/audioengine/pkg/audio/netsink"
	"github.com/oakmix/audioengine/pkg/audio/sink"
	devicesink "github.com/oakmix/audioengine/pkg/audio/sink/device"
	flacsink "github.com/oakmix/audioengine/pkg/audio/sink/flac"
	mp3sink "github.com/oakmix/audioengine/pkg/audio/sink/mp3"
	opussink "github.com/oakmix/audioengine/pkg/audio/sink/opus"
	wavsink "github.com/oakmix/audioengine/pkg/audio/sink/wav"
)

// timestampedPath inserts _YYYYMMDD_HHMMSS before the last extension dot
// (or appends it if there is none) — spec §9's redesign note: "a pure
// string function", not inheritance-chain logic shared by a file-sink
// base class.
func timestampedPath(path string, now time.Time) string {
	stamp := now.Format("_20060102_150405")
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[:i] + stamp + path[i:]
		}
		if path[i] == '/' {
			break
		}
	}
	return path + stamp
}

// openSink dispatches a DestinationConfig to its concrete sink
// implementation by tagged Kind — spec §9's redesign note in place of an
// abstract destination base class.
func openSink(cfg DestinationConfig, now time.Time) (sink.Sink, error) {
	path := cfg.Path
	if cfg.AddTimestamp {
		path = timestampedPath(path, now)
	}

	common := sink.Config{
		Path:             path,
		AddTimestamp:     cfg.AddTimestamp,
		Volume:           cfg.Volume,
		SkipSilence:      cfg.SkipSilence,
		SilenceHoldoffMs: cfg.SilenceHoldoffMs,
	}

	var sk sink.Sink
	var err error
	switch cfg.Kind {
	case SinkWAV:
		sk, err = wavsink.New(path, cfg.Format, wavsink.Config{Config: common})
	case SinkMP3:
		sk, err = mp3sink.New(path, cfg.Format, mp3sink.Config{Config: common, BitrateKbps: cfg.BitrateKbps})
	case SinkOpus:
		sk, err = opussink.New(path, cfg.Format, opussink.Config{Config: common, BitrateBps: cfg.BitrateKbps * 1000})
	case SinkFLAC:
		sk, err = flacsink.New(path, cfg.Format, flacsink.Config{Config: common, CompressionLevel: cfg.CompressionLevel})
	case SinkDevice:
		return devicesink.New(cfg.DeviceID, cfg.Format, devicesink.Config{Config: common, DeviceID: cfg.DeviceID})
	case SinkNetRelay:
		if cfg.RTPTrack == nil {
			return nil, &apperr.ConfigRejected{Field: "destinations.rtpTrack", Reason: "net_relay destination requires an RTPTrack"}
		}
		return netsink.New(cfg.RTPTrack, cfg.Format, netsink.Config{Config: common, BitrateBps: cfg.BitrateKbps * 1000})
	default:
		return nil, &apperr.ConfigRejected{Field: "destinations.kind", Reason: fmt.Sprintf("unknown sink kind %q", cfg.Kind)}
	}
	if err != nil {
		return nil, err
	}

	if cfg.Archive != nil && cfg.Kind != SinkDevice && cfg.Kind != SinkNetRelay {
		sk = archive.Wrap(sk, archive.New(cfg.Archive.Store), archiveGlob(path))
	}
	return sk, nil
}

// archiveGlob turns a destination's path into a glob matching both the
// primary output file and any `_partN` splits (the WAV encoder's 4 GiB
// rotation) written alongside it.
func archiveGlob(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[:i] + "*" + path[i:]
		}
		if path[i] == '/' {
			break
		}
	}
	return path + "*"
}
