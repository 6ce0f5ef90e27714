package format

// Convert resamples, channel-maps and re-encodes src (in srcFormat) into
// dstFormat, per spec §4.A:
//
//   - sample-rate convert by linear interpolation using ratio = dstRate/srcRate
//   - map channels: identity when equal, duplicate the last source channel
//     when dst has more channels, drop extra source channels when dst has
//     fewer
//   - convert sample layout
//
// It writes exactly floor(srcFrames * ratio) destination frames. scratch is
// reused and grown as needed to avoid allocating on every call from a hot
// path; the returned slice aliases scratch's backing array and is valid
// only until the next call to Convert with the same scratch.
func Convert(scratch *[]byte, src []byte, srcFormat, dstFormat Format) []byte {
	if srcFormat.Compatible(dstFormat) {
		*scratch = append((*scratch)[:0], src...)
		return *scratch
	}

	srcFrames := srcFormat.Frames(len(src))
	if srcFrames == 0 {
		*scratch = (*scratch)[:0]
		return *scratch
	}

	ratio := float64(dstFormat.SampleRate) / float64(srcFormat.SampleRate)
	dstFrames := int(float64(srcFrames) * ratio)

	dstChannels := dstFormat.Channels
	srcChannels := srcFormat.Channels
	dstBps := dstFormat.SampleLayout.BytesPerSample()
	srcBps := srcFormat.SampleLayout.BytesPerSample()

	need := dstFrames * dstFormat.BlockAlign()
	if cap(*scratch) < need {
		*scratch = make([]byte, need)
	} else {
		*scratch = (*scratch)[:need]
	}
	dst := *scratch

	for frame := 0; frame < dstFrames; frame++ {
		sourcePos := float64(frame) / ratio
		low := int(sourcePos)
		high := low + 1
		if high > srcFrames-1 {
			high = srcFrames - 1
		}
		frac := sourcePos - float64(low)

		for ch := 0; ch < dstChannels; ch++ {
			srcCh := ch
			if srcCh >= srcChannels {
				srcCh = srcChannels - 1
			}
			lowOff := (low*srcChannels + srcCh) * srcBps
			highOff := (high*srcChannels + srcCh) * srcBps
			sampleLow := readSample(src, srcFormat.SampleLayout, lowOff)
			sampleHigh := readSample(src, srcFormat.SampleLayout, highOff)
			interpolated := sampleLow + (sampleHigh-sampleLow)*frac

			dstOff := (frame*dstChannels + ch) * dstBps
			writeSample(dst, dstFormat.SampleLayout, dstOff, interpolated)
		}
	}

	return dst
}
