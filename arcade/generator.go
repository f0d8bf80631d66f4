package arcade

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	// reserved, beatsPerMinute (2), beatsPerMeasure, ticksPerBeat, measures, trackCount
	songHeaderSize = 7
	// id, reserved, instrument length (2), note event length (2)
	trackHeaderSize = 6
	// waveform, 2 envelopes of 5 16-bit fields, 2 LFOs of 3 bytes each, octave
	instrumentSize = 1 + 10 + 10 + 3 + 3 + 1
	// startTick (2), endTick (2), noteCount
	noteEventHeaderSize = 5
)

// CalculateSize returns the size in bytes of the encoded instrument.
func (i *Instrument) CalculateSize() int {
	return instrumentSize
}

// CalculateSize returns the size in bytes of the encoded note event.
func (e *NoteEvent) CalculateSize() int {
	return noteEventHeaderSize + len(e.Notes)
}

// CalculateSize returns the size in bytes of the encoded track.
func (t *Track) CalculateSize() int {
	size := trackHeaderSize + t.Instrument.CalculateSize()
	for i := range t.Notes {
		size += t.Notes[i].CalculateSize()
	}
	return size
}

// compiledTracks returns the tracks that are written to the output.
// Tracks without note events are left out entirely.
func (s *Song) compiledTracks() []*Track {
	var out []*Track
	for _, track := range s.Tracks {
		if len(track.Notes) > 0 {
			out = append(out, track)
		}
	}
	return out
}

// CalculateSize returns the total size in bytes of the encoded song.
func (s *Song) CalculateSize() int {
	size := songHeaderSize
	for _, track := range s.compiledTracks() {
		size += track.CalculateSize()
	}
	return size
}

func writeUint16(b *bytes.Buffer, v uint16) {
	binary.Write(b, binary.LittleEndian, v)
}

func writeEnvelope(b *bytes.Buffer, env *Envelope) {
	if env == nil {
		env = &Envelope{}
	}
	writeUint16(b, env.Attack)
	writeUint16(b, env.Decay)
	writeUint16(b, env.Sustain)
	writeUint16(b, env.Release)
	writeUint16(b, env.Amplitude)
}

func writeLFO(b *bytes.Buffer, lfo *LFO) {
	if lfo == nil {
		lfo = &LFO{}
	}
	b.WriteByte(lfo.Frequency)
	writeUint16(b, lfo.Amplitude)
}

// toByte converts the note into the byte stored on a track with the given reference octave.
// The low 6 bits hold the octave-relative value and the top 2 bits hold the enharmonic flags.
func (n Note) toByte(octave uint8) (byte, error) {
	if !n.Spelling.isValid() {
		return 0, fmt.Errorf("invalid enharmonic spelling: %d", n.Spelling)
	}
	value := NoteValue(n.Pitch, octave)
	if !n.Fits(octave) {
		// Wrapping the value would silently play a different pitch.
		return 0, fmt.Errorf("%w: note %d encodes to %d on octave %d, must be 0-%d",
			ErrEncodingOverflow, n.Pitch, value, octave, maxNoteValue)
	}
	return byte(value) | n.Spelling.flags()<<6, nil
}

func (e *NoteEvent) toBytes(octave uint8) ([]byte, error) {
	if len(e.Notes) > maxNotesPerEvent {
		return nil, fmt.Errorf("%w: note event at tick %d has %d notes, at most %d allowed",
			ErrEncodingOverflow, e.StartTick, len(e.Notes), maxNotesPerEvent)
	}

	b := bytes.NewBuffer(make([]byte, 0, e.CalculateSize()))
	writeUint16(b, e.StartTick)
	writeUint16(b, e.EndTick)
	b.WriteByte(byte(len(e.Notes)))
	for _, note := range e.Notes {
		v, err := note.toByte(octave)
		if err != nil {
			return nil, err
		}
		b.WriteByte(v)
	}
	return b.Bytes(), nil
}

func (i *Instrument) toBytes() []byte {
	b := bytes.NewBuffer(make([]byte, 0, i.CalculateSize()))
	b.WriteByte(i.Waveform)
	writeEnvelope(b, &i.AmpEnvelope)
	writeEnvelope(b, i.PitchEnvelope)
	writeLFO(b, i.AmpLFO)
	writeLFO(b, i.PitchLFO)
	b.WriteByte(i.Octave)
	return b.Bytes()
}

// Compile converts a melodic track into its binary form.
func (t *Track) Compile() ([]byte, error) {
	if t.IsDrumTrack() {
		return nil, fmt.Errorf("%w: drum track encoding", ErrUnsupported)
	}

	instrument := t.Instrument.toBytes()

	notes := new(bytes.Buffer)
	for i := range t.Notes {
		encoded, err := t.Notes[i].toBytes(t.Instrument.Octave)
		if err != nil {
			return nil, fmt.Errorf("note event %d: %w", i, err)
		}
		notes.Write(encoded)
	}
	if notes.Len() > 0xffff {
		return nil, fmt.Errorf("%w: note events take %d bytes, at most %d allowed", ErrRange, notes.Len(), 0xffff)
	}

	b := bytes.NewBuffer(make([]byte, 0, t.CalculateSize()))
	b.WriteByte(t.ID)
	b.WriteByte(0) // Reserved.
	writeUint16(b, uint16(len(instrument)))
	b.Write(instrument)
	writeUint16(b, uint16(notes.Len()))
	b.Write(notes.Bytes())
	return b.Bytes(), nil
}

// Compile converts the song into the binary format that the Arcade music player reads.
func (s *Song) Compile() ([]byte, error) {
	tracks := s.compiledTracks()
	if len(tracks) > maxTracks {
		return nil, fmt.Errorf("%w: song has %d tracks with notes, at most %d allowed",
			ErrEncodingOverflow, len(tracks), maxTracks)
	}

	totalSize := s.CalculateSize()
	buffer := bytes.NewBuffer(make([]byte, 0, totalSize))

	buffer.WriteByte(0) // Reserved.
	writeUint16(buffer, s.BeatsPerMinute)
	buffer.WriteByte(s.BeatsPerMeasure)
	buffer.WriteByte(s.TicksPerBeat)
	buffer.WriteByte(s.Measures)
	buffer.WriteByte(byte(len(tracks)))

	for i, track := range tracks {
		encoded, err := track.Compile()
		if err != nil {
			return nil, fmt.Errorf("track %d (%s): %w", i, track.Name, err)
		}
		buffer.Write(encoded)
	}

	// Sanity check to make sure the output binary is the expected size.
	if buffer.Len() != totalSize {
		return nil, fmt.Errorf("song size mismatch: got %d bytes, expected %d", buffer.Len(), totalSize)
	}
	return buffer.Bytes(), nil
}
