package audio

import (
	"bytes"
	"encoding/binary"
	"time"
)

// MicrophoneConfig tunes the energy based voice activity detection used to cut
// one utterance out of the microphone stream.
type MicrophoneConfig struct {
	SampleRate       int
	FramesPerBuffer  int
	SilenceThreshold int16
	SilenceDuration  time.Duration
	MinDuration      time.Duration
	MaxDuration      time.Duration
}

func (c MicrophoneConfig) withDefaults() MicrophoneConfig {
	if c.SampleRate == 0 {
		c.SampleRate = 16000
	}
	if c.FramesPerBuffer == 0 {
		c.FramesPerBuffer = 1024
	}
	if c.SilenceThreshold == 0 {
		c.SilenceThreshold = 500
	}
	if c.SilenceDuration == 0 {
		c.SilenceDuration = time.Second
	}
	if c.MinDuration == 0 {
		c.MinDuration = time.Second
	}
	if c.MaxDuration == 0 {
		c.MaxDuration = 10 * time.Second
	}
	return c
}

// utterance accumulates frames until trailing silence or the length cap ends
// it. Leading silence is discarded so a quiet room does not produce clips.
type utterance struct {
	cfg         MicrophoneConfig
	samples     []int16
	silentRun   int
	heardSpeech bool
}

func newUtterance(cfg MicrophoneConfig) *utterance {
	return &utterance{
		cfg:     cfg,
		samples: make([]int16, 0, cfg.SampleRate*5),
	}
}

func (u *utterance) samplesFor(d time.Duration) int {
	return int(d.Seconds() * float64(u.cfg.SampleRate))
}

// add appends a frame and reports whether the utterance is complete.
func (u *utterance) add(frame []int16) bool {
	silent := isSilent(frame, u.cfg.SilenceThreshold)
	if !u.heardSpeech {
		if silent {
			return false
		}
		u.heardSpeech = true
	}

	u.samples = append(u.samples, frame...)

	if silent {
		u.silentRun += len(frame)
	} else {
		u.silentRun = 0
	}

	if len(u.samples) >= u.samplesFor(u.cfg.MaxDuration) {
		return true
	}
	return u.silentRun >= u.samplesFor(u.cfg.SilenceDuration) &&
		len(u.samples) >= u.samplesFor(u.cfg.MinDuration)
}

func isSilent(frame []int16, threshold int16) bool {
	for _, sample := range frame {
		if sample > threshold || sample < -threshold {
			return false
		}
	}
	return true
}

// samplesToWav encodes mono 16-bit PCM as a WAV file.
func samplesToWav(samples []int16, sampleRate int) []byte {
	var buf bytes.Buffer

	dataSize := len(samples) * 2

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, int32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, int32(16))
	_ = binary.Write(&buf, binary.LittleEndian, int16(1))
	_ = binary.Write(&buf, binary.LittleEndian, int16(1))
	_ = binary.Write(&buf, binary.LittleEndian, int32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, int32(sampleRate*2))
	_ = binary.Write(&buf, binary.LittleEndian, int16(2))
	_ = binary.Write(&buf, binary.LittleEndian, int16(16))

	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, int32(dataSize))
	_ = binary.Write(&buf, binary.LittleEndian, samples)

	return buf.Bytes()
}
