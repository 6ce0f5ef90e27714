package enum

import (
	"fmt"

	"github.com/oakmix/audioengine/pkg/audio/portaudio"
)

// DeviceInfo is the device-enumerator snapshot shape of spec §6.
type DeviceInfo struct {
	DeviceID     string
	FriendlyName string
	IsDefault    bool
	IsInput      bool
	IsOutput     bool
}

// DeviceEnumerator wraps pkg/audio/portaudio's device listing.
type DeviceEnumerator struct{}

// NewDeviceEnumerator returns a DeviceEnumerator.
func NewDeviceEnumerator() *DeviceEnumerator {
	return &DeviceEnumerator{}
}

// List returns every render and capture endpoint PortAudio can see.
// DeviceID is the device's stable name, matching capture.DeviceCapture's
// and capture.DeviceLoopback's lookup key (pkg/audio/capture resolves
// targets by name, not index, since indices are not stable across
// reboots or hotplug).
func (e *DeviceEnumerator) List() ([]DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("enum: list devices: %w", err)
	}

	infos := make([]DeviceInfo, 0, len(devices))
	for _, d := range devices {
		infos = append(infos, toDeviceInfo(d))
	}
	return infos, nil
}

func toDeviceInfo(d portaudio.DeviceInfo) DeviceInfo {
	return DeviceInfo{
		DeviceID:     d.Name,
		FriendlyName: d.Name,
		IsDefault:    d.IsDefaultInput || d.IsDefaultOutput,
		IsInput:      d.MaxInputChannels > 0,
		IsOutput:     d.MaxOutputChannels > 0,
	}
}
