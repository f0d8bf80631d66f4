package arcade

import (
	"fmt"
	"strings"
)

const maxMeasures = (1 << 8) - 1
// MaxTick is the largest tick a note event can start or end on.
const MaxTick = (1 << 16) - 1
const maxNoteValue = (1 << 6) - 1 // Top 2 bits of a note byte hold the enharmonic flags.
const maxNotesPerEvent = (1 << 8) - 1
const maxTracks = (1 << 8) - 1

type EnharmonicSpelling int

const (
	Normal EnharmonicSpelling = iota // Natural spelling of the pitch.
	Flat
	Sharp
)

func (e EnharmonicSpelling) isValid() bool {
	switch e {
	case Normal, Flat, Sharp:
		return true
	default:
		return false
	}
}

// flags returns the 2-bit value stored in the top bits of an encoded note.
func (e EnharmonicSpelling) flags() byte {
	switch e {
	case Flat:
		return 1
	case Sharp:
		return 2
	default:
		return 0
	}
}

func (e EnharmonicSpelling) String() string {
	switch e {
	case Normal:
		return "normal"
	case Flat:
		return "flat"
	case Sharp:
		return "sharp"
	default:
		return fmt.Sprintf("EnharmonicSpelling(%d)", int(e))
	}
}

// An ADSR envelope. Every field is a 16-bit magnitude.
type Envelope struct {
	Attack    uint16
	Decay     uint16
	Sustain   uint16
	Release   uint16
	Amplitude uint16
}

// A low frequency oscillator used to modulate amplitude or pitch.
type LFO struct {
	Frequency uint8
	Amplitude uint16
}

// The timbre of a melodic track.
// Nil optional fields are encoded as zeroes.
type Instrument struct {
	Waveform      uint8
	AmpEnvelope   Envelope
	PitchEnvelope *Envelope
	AmpLFO        *LFO
	PitchLFO      *LFO

	// The reference octave. Pitches are stored relative to it, so it decides
	// which range of pitches the track can play.
	Octave uint8
}

// Clone returns a deep copy of the instrument.
func (i Instrument) Clone() Instrument {
	out := i
	if i.PitchEnvelope != nil {
		env := *i.PitchEnvelope
		out.PitchEnvelope = &env
	}
	if i.AmpLFO != nil {
		lfo := *i.AmpLFO
		out.AmpLFO = &lfo
	}
	if i.PitchLFO != nil {
		lfo := *i.PitchLFO
		out.PitchLFO = &lfo
	}
	return out
}

type DrumSoundStep struct {
	Waveform  uint8
	Frequency uint16
	Volume    uint16
	Duration  uint16
}

type DrumInstrument struct {
	StartFrequency uint16
	StartVolume    uint16
	Steps          []DrumSoundStep
}

// A single pitch inside a note event.
type Note struct {
	Pitch    int // Absolute Midi note number.
	Spelling EnharmonicSpelling
}

// NoteValue returns the value a pitch is stored as on a track with the given reference octave.
// Values outside 0..63 cannot be encoded.
func NoteValue(pitch int, octave uint8) int {
	return pitch - (int(octave)-2)*12 - 11
}

// TooHigh reports whether the note is above the range of a track with the given reference octave.
func (n Note) TooHigh(octave uint8) bool {
	return NoteValue(n.Pitch, octave) > maxNoteValue
}

// Fits reports whether the note can be encoded on a track with the given reference octave.
func (n Note) Fits(octave uint8) bool {
	return NoteValue(n.Pitch, octave) >= 0 && !n.TooHigh(octave)
}

// A chord (or single note) sounding from StartTick until EndTick.
type NoteEvent struct {
	Notes     []Note
	StartTick uint16
	EndTick   uint16
}

// A single instrument line in a song.
type Track struct {
	ID         uint8
	Name       string // Display only, not encoded.
	IconURI    string // Display only, not encoded.
	Instrument Instrument
	Notes      []NoteEvent

	// Drum kit for percussion tracks. Percussion tracks cannot be compiled yet.
	Drums []DrumInstrument
}

// IsDrumTrack returns whether the track is a percussion track.
func (t *Track) IsDrumTrack() bool {
	return t.Drums != nil
}

// Clone returns a deep copy of the track.
func (t *Track) Clone() *Track {
	out := *t
	out.Instrument = t.Instrument.Clone()
	if t.Notes != nil {
		out.Notes = make([]NoteEvent, len(t.Notes))
		for i, event := range t.Notes {
			event.Notes = append([]Note(nil), event.Notes...)
			out.Notes[i] = event
		}
	}
	if t.Drums != nil {
		out.Drums = make([]DrumInstrument, len(t.Drums))
		for i, drum := range t.Drums {
			drum.Steps = append([]DrumSoundStep(nil), drum.Steps...)
			out.Drums[i] = drum
		}
	}
	return &out
}

// AddNoteEvent appends a note event to the track.
// The event must hold 1..255 notes and must not end before it starts.
func (t *Track) AddNoteEvent(event NoteEvent) error {
	if len(event.Notes) == 0 {
		return fmt.Errorf("note event at tick %d has no notes", event.StartTick)
	}
	if len(event.Notes) > maxNotesPerEvent {
		return fmt.Errorf("%w: note event at tick %d has %d notes, at most %d allowed",
			ErrEncodingOverflow, event.StartTick, len(event.Notes), maxNotesPerEvent)
	}
	if event.EndTick < event.StartTick {
		return fmt.Errorf("note event ends at tick %d before it starts at tick %d", event.EndTick, event.StartTick)
	}
	for _, note := range event.Notes {
		if !note.Spelling.isValid() {
			return fmt.Errorf("invalid enharmonic spelling: %d", note.Spelling)
		}
	}

	t.Notes = append(t.Notes, event)
	return nil
}

// A complete song composition.
type Song struct {
	Measures        uint8
	BeatsPerMeasure uint8
	BeatsPerMinute  uint16
	TicksPerBeat    uint8

	// Tracks are indexed by position during playback, so their order is kept when compiling.
	Tracks []*Track
}

// TickLimit returns the number of ticks addressable by the song's measures.
func (s *Song) TickLimit() int {
	return int(s.Measures) * int(s.BeatsPerMeasure) * int(s.TicksPerBeat)
}

// MeasuresFor returns the number of measures needed to hold endTick ticks.
// It returns an error if more than 255 measures would be needed.
func MeasuresFor(endTick int, ticksPerBeat uint8, beatsPerMeasure uint8) (uint8, error) {
	ticksPerMeasure := int(ticksPerBeat) * int(beatsPerMeasure)
	if ticksPerMeasure == 0 {
		return 0, fmt.Errorf("%w: measures must have at least one tick", ErrConfiguration)
	}
	measures := (endTick + ticksPerMeasure - 1) / ticksPerMeasure
	if measures > maxMeasures {
		return 0, fmt.Errorf("%w: song needs %d measures, at most %d allowed (try a larger divisor)",
			ErrRange, measures, maxMeasures)
	}
	return uint8(measures), nil
}

// EmptySong returns a song with the music editor's default timing and a single empty Dog track.
func EmptySong(measures uint8) *Song {
	dog, _ := TrackByID(0)
	return &Song{
		Measures:        measures,
		BeatsPerMeasure: 4,
		BeatsPerMinute:  120,
		TicksPerBeat:    8,
		Tracks:          []*Track{dog},
	}
}

func (n Note) String() string {
	switch n.Spelling {
	case Flat:
		return fmt.Sprintf("%db", n.Pitch)
	case Sharp:
		return fmt.Sprintf("%d#", n.Pitch)
	default:
		return fmt.Sprintf("%d", n.Pitch)
	}
}

func (e NoteEvent) String() string {
	pitches := make([]string, len(e.Notes))
	for i, note := range e.Notes {
		pitches[i] = note.String()
	}
	return fmt.Sprintf("%d-%d: %s", e.StartTick, e.EndTick, strings.Join(pitches, " "))
}

// formatEventsByTrack formats note events into a table with one column per track.
// indent: number of spaces to indent the table
func formatEventsByTrack(tracks []*Track, indent int) string {
	if len(tracks) == 0 {
		return ""
	}

	headers := make([]string, len(tracks))
	maxRows := 0
	for i, track := range tracks {
		headers[i] = fmt.Sprintf("Track %d", i)
		if track.Name != "" {
			headers[i] = fmt.Sprintf("%s (octave %d)", track.Name, track.Instrument.Octave)
		}
		maxRows = max(maxRows, len(track.Notes))
	}

	// Calculate column widths
	widths := make([]int, len(tracks))
	for i, track := range tracks {
		widths[i] = len(headers[i])
		for _, event := range track.Notes {
			widths[i] = max(widths[i], len(event.String()))
		}
		// Set a minimum width for nicer output
		widths[i] = max(widths[i], 18)
	}

	padRight := func(s string, w int) string {
		if len(s) >= w {
			return s
		}
		return s + strings.Repeat(" ", w-len(s))
	}

	var b strings.Builder
	separator := func() {
		b.WriteString(strings.Repeat(" ", indent))
		for i := range tracks {
			b.WriteString("+")
			b.WriteString(strings.Repeat("-", widths[i]+2)) // +2 for the space padding either side
		}
		b.WriteString("+\n")
	}

	separator()
	b.WriteString(strings.Repeat(" ", indent))
	for i := range tracks {
		b.WriteString("| ")
		b.WriteString(padRight(headers[i], widths[i]))
		b.WriteString(" ")
	}
	b.WriteString("|\n")
	separator()

	for row := 0; row < maxRows; row++ {
		b.WriteString(strings.Repeat(" ", indent))
		for i, track := range tracks {
			cell := ""
			if row < len(track.Notes) {
				cell = track.Notes[row].String()
			}
			b.WriteString("| ")
			b.WriteString(padRight(cell, widths[i]))
			b.WriteString(" ")
		}
		b.WriteString("|\n")
	}
	separator()

	return b.String()
}

// Pretty-print
func (s *Song) String() string {
	var b strings.Builder
	b.WriteString("Arcade Song:\n")
	fmt.Fprintf(&b, "- Measures: %d\n", s.Measures)
	fmt.Fprintf(&b, "- Beats per measure: %d\n", s.BeatsPerMeasure)
	fmt.Fprintf(&b, "- Beats per minute: %d\n", s.BeatsPerMinute)
	fmt.Fprintf(&b, "- Ticks per beat: %d\n", s.TicksPerBeat)
	fmt.Fprintf(&b, "- Tracks: %d\n", len(s.Tracks))

	b.WriteString(formatEventsByTrack(s.Tracks, 2))

	for i, track := range s.Tracks {
		if len(track.Notes) == 0 {
			fmt.Fprintf(&b, "  - Track #%d: empty, will not be compiled\n", i)
			continue
		}
		trackSize := track.CalculateSize()
		fmt.Fprintf(&b, "  - Track #%d: %d note events, %d byte", i, len(track.Notes), trackSize)
		if trackSize != 1 {
			b.WriteString("s") // Pluralise the word "byte" if needed.
		}
		b.WriteString("\n")
	}

	totalSize := s.CalculateSize()
	fmt.Fprintf(&b, "[Total song size: %d byte", totalSize)
	if totalSize != 1 {
		b.WriteString("s")
	}
	b.WriteString("]\n")

	return b.String()
}
