package router

import (
	"time"

	"github.com/oakmix/audioengine/pkg/audio/capture"
	"github.com/oakmix/audioengine/pkg/audio/sink"
)

// DryRun validates cfg, then initializes every source endpoint and opens
// every destination sink — reaching capture.Ready without ever calling
// Start — and immediately tears everything back down. This is
// cmd/audioengine's `validate` subcommand's admission check: it confirms
// devices and files actually open, not just that the config is
// well-formed, without ever routing a frame of real audio.
func DryRun(cfg SessionConfig) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}

	now := time.Now()
	var opened []sinkEntry
	for _, dc := range cfg.Destinations {
		sk, err := openSink(dc, now)
		if err != nil {
			closeSinks(opened)
			return err
		}
		opened = append(opened, sinkEntry{dc.ID, sk})
	}
	defer closeSinks(opened)

	var clients []*capture.Client
	defer func() {
		for _, c := range clients {
			c.Destroy()
		}
	}()
	for _, sc := range cfg.Sources {
		client := capture.NewClient(sc.DesiredFormat)
		if err := client.InitializeEndpoint(sc.Target); err != nil {
			return err
		}
		clients = append(clients, client)
	}

	return nil
}

type sinkEntry struct {
	id   string
	sink sink.Sink
}

func closeSinks(entries []sinkEntry) {
	for _, e := range entries {
		e.sink.Close()
	}
}
