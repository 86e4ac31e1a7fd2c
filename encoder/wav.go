package encoder

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavHeader is the canonical 44-byte RIFF/WAVE header for uncompressed PCM.
// Chunk transcription backends expect this exact byte layout, so the writer
// builds it by hand instead of going through a library.
type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 = PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

// EncodeWAV renders samples as a complete mono 16 kHz PCM16 WAV file.
func EncodeWAV(samples []int16) []byte {
	dataSize := uint32(len(samples) * 2)
	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   Channels,
		SampleRate:    SampleRate,
		ByteRate:      SampleRate * Channels * BitsPerSample / 8,
		BlockAlign:    Channels * BitsPerSample / 8,
		BitsPerSample: BitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, 44+len(samples)*2))
	binary.Write(buf, binary.LittleEndian, header)
	binary.Write(buf, binary.LittleEndian, samples)
	return buf.Bytes()
}

// WriteWAVFile writes samples to path as a WAV file.
func WriteWAVFile(path string, samples []int16) error {
	if err := os.WriteFile(path, EncodeWAV(samples), 0o644); err != nil {
		return fmt.Errorf("write wav %s: %w", path, err)
	}
	return nil
}

// ReadWAVFile loads a WAV file and returns its samples. Anything but strict
// mono 16 kHz PCM16 is rejected.
func ReadWAVFile(path string) ([]int16, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s: not a valid WAV file", path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav %s: %w", path, err)
	}
	if buf.Format.SampleRate != SampleRate {
		return nil, fmt.Errorf("%s: unsupported sample rate %d, want %d", path, buf.Format.SampleRate, SampleRate)
	}
	if buf.Format.NumChannels != Channels {
		return nil, fmt.Errorf("%s: unsupported channel count %d, want mono", path, buf.Format.NumChannels)
	}
	if dec.BitDepth != BitsPerSample {
		return nil, fmt.Errorf("%s: unsupported bit depth %d, want %d", path, dec.BitDepth, BitsPerSample)
	}

	return toPCM16(buf), nil
}

func toPCM16(buf *audio.IntBuffer) []int16 {
	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v)
	}
	return samples
}
