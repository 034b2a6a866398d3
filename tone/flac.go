package tone

import (
	"bytes"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

const (
	flacBlockSize     = 4096
	flacBitsPerSample = 16
)

// WriteFLAC encodes interleaved stereo samples as a FLAC stream.
func WriteFLAC(w io.Writer, samples []int16, sampleRate int) error {
	var buf bytes.Buffer
	info := &meta.StreamInfo{
		BlockSizeMin:  flacBlockSize,
		BlockSizeMax:  flacBlockSize,
		SampleRate:    uint32(sampleRate),
		NChannels:     Channels,
		BitsPerSample: flacBitsPerSample,
		NSamples:      uint64(len(samples) / Channels),
	}
	enc, err := flac.NewEncoder(&buf, info)
	if err != nil {
		return fmt.Errorf("creating flac encoder: %w", err)
	}

	frames := len(samples) / Channels
	for start := 0; start < frames; start += flacBlockSize {
		end := min(start+flacBlockSize, frames)
		n := end - start
		left := make([]int32, n)
		right := make([]int32, n)
		for i := 0; i < n; i++ {
			left[i] = int32(samples[(start+i)*Channels])
			right[i] = int32(samples[(start+i)*Channels+1])
		}

		f := &frame.Frame{
			Header: frame.Header{
				BlockSize:     uint16(n),
				SampleRate:    uint32(sampleRate),
				Channels:      frame.ChannelsLR,
				BitsPerSample: flacBitsPerSample,
			},
			Subframes: []*frame.Subframe{
				{SubHeader: frame.SubHeader{Pred: frame.PredVerbatim}, Samples: left, NSamples: n},
				{SubHeader: frame.SubHeader{Pred: frame.PredVerbatim}, Samples: right, NSamples: n},
			},
		}
		if err := enc.WriteFrame(f); err != nil {
			return fmt.Errorf("writing flac frame: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("closing flac encoder: %w", err)
	}

	_, err = w.Write(buf.Bytes())
	return err
}
