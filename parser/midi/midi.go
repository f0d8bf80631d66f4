package midi

import (
	"fmt"
	"log"
	"math"

	"github.com/QEStudios/ArcadeSongCompiler/arcade"
)

const (
	TicksPerBeat    = 100
	BeatsPerMeasure = 10

	msPerTick = 10 // At a divisor of 1.

	// Reference octaves of the two piano tracks.
	LowOctave  = 2
	HighOctave = 7
)

// Options configure a single conversion.
type Options struct {
	// Time divisor, at least 1. Every tick value and the tempo are divided by it,
	// so long files fit in the 255 measure limit while playing back at the same speed.
	Divisor int
	// Preset track used for both piano tracks, by id or name.
	Track string
}

// Validate checks the options before any conversion work is done.
func (o Options) Validate() error {
	if o.Divisor < 1 {
		return fmt.Errorf("%w: divisor must be at least 1, got %d", arcade.ErrConfiguration, o.Divisor)
	}
	return nil
}

// roundHalfEven rounds to the nearest integer, with ties going to the even neighbour.
func roundHalfEven(x float64) int {
	return int(math.RoundToEven(x))
}

// A Quantizer maps milliseconds onto the tick grid.
type Quantizer struct {
	divisor int
}

// NewQuantizer returns a quantizer for the given time divisor.
func NewQuantizer(divisor int) (Quantizer, error) {
	if err := (Options{Divisor: divisor}).Validate(); err != nil {
		return Quantizer{}, err
	}
	return Quantizer{divisor: divisor}, nil
}

// Ticks converts milliseconds to unscaled ticks.
func (q Quantizer) Ticks(ms int) int {
	return roundHalfEven(float64(ms) / msPerTick)
}

// Scale applies the divisor to an unscaled tick value.
func (q Quantizer) Scale(ticks int) int {
	return roundHalfEven(float64(ticks) / float64(q.divisor))
}

// Quantize converts milliseconds straight to scaled ticks.
func (q Quantizer) Quantize(ms int) int {
	return q.Scale(q.Ticks(ms))
}

// BeatsPerMinute returns the tempo that keeps scaled ticks playing at real time.
func (q Quantizer) BeatsPerMinute() int {
	return roundHalfEven(60 / float64(q.divisor))
}

// A single note with its position on the scaled tick grid.
type NoteSpan struct {
	Pitch     int
	StartTick int
	EndTick   int
	Index     int  // Index of the note on event in the input.
	Ended     bool // False if the note is held until the end of the stream.
}

// A group of notes starting on the same tick.
type Chord struct {
	Pitches   []int
	StartTick int
	EndTick   int

	// Notes in the chord whose own end tick differed from EndTick.
	// Their durations are not kept.
	MismatchedEnds int
}

// AssembleChords groups note spans sharing a start tick into chords, in order of first appearance.
// The first span at a start tick decides the chord's end tick.
func AssembleChords(spans []NoteSpan) []Chord {
	var chords []Chord
	for _, span := range spans {
		i := findChordWithStartTick(chords, span.StartTick)
		if i == -1 {
			chords = append(chords, Chord{
				Pitches:   []int{span.Pitch},
				StartTick: span.StartTick,
				EndTick:   span.EndTick,
			})
			continue
		}
		chords[i].Pitches = append(chords[i].Pitches, span.Pitch)
		if span.EndTick != chords[i].EndTick {
			chords[i].MismatchedEnds++
		}
	}
	return chords
}

// findChordWithStartTick returns the index of the chord starting at startTick, or -1.
func findChordWithStartTick(chords []Chord, startTick int) int {
	// Scan from the back, notes are in time order so a match is usually the last chord.
	for i := len(chords) - 1; i >= 0; i-- {
		if chords[i].StartTick == startTick {
			return i
		}
	}
	return -1
}

// SplitChord divides a chord's pitches between the low piano track and the high piano track.
// A pitch stays low if it fits under the low track's reference octave, otherwise it goes high.
func SplitChord(pitches []int, lowOctave uint8) (low []arcade.Note, high []arcade.Note) {
	for _, pitch := range pitches {
		note := arcade.Note{Pitch: pitch, Spelling: arcade.Normal}
		if note.TooHigh(lowOctave) {
			high = append(high, note)
		} else {
			low = append(low, note)
		}
	}
	return low, high
}

// newPianoTrack returns a fresh copy of the selected preset with its octave overridden.
func newPianoTrack(selector string, octave uint8) (*arcade.Track, error) {
	track, err := arcade.LookupTrack(selector)
	if err != nil {
		return nil, err
	}
	if track.IsDrumTrack() {
		return nil, fmt.Errorf("track %q is a drum track: %w", track.Name, arcade.ErrUnsupported)
	}
	track.Instrument.Octave = octave
	return track, nil
}

// LastTick returns the furthest end tick of any note, including notes whose
// duration was not kept by their chord.
func LastTick(spans []NoteSpan) int {
	endTick := 0
	for _, span := range spans {
		endTick = max(endTick, span.EndTick)
	}
	return endTick
}

// BuildSong creates a two track piano song (low, high) from scaled chords.
// endTick is the furthest end tick of the song and decides the number of measures.
func BuildSong(chords []Chord, endTick int, selector string, q Quantizer) (*arcade.Song, error) {
	low, err := newPianoTrack(selector, LowOctave)
	if err != nil {
		return nil, err
	}
	high, err := newPianoTrack(selector, HighOctave)
	if err != nil {
		return nil, err
	}

	for _, chord := range chords {
		endTick = max(endTick, chord.EndTick)
	}
	if endTick > arcade.MaxTick {
		return nil, fmt.Errorf("%w: last tick is %d, at most %d allowed (try a larger divisor)",
			arcade.ErrRange, endTick, arcade.MaxTick)
	}
	measures, err := arcade.MeasuresFor(endTick, TicksPerBeat, BeatsPerMeasure)
	if err != nil {
		return nil, err
	}

	for _, chord := range chords {
		lowNotes, highNotes := SplitChord(chord.Pitches, low.Instrument.Octave)
		if len(lowNotes) > 0 {
			err := low.AddNoteEvent(arcade.NoteEvent{
				Notes:     lowNotes,
				StartTick: uint16(chord.StartTick),
				EndTick:   uint16(chord.EndTick),
			})
			if err != nil {
				return nil, err
			}
		}
		if len(highNotes) > 0 {
			err := high.AddNoteEvent(arcade.NoteEvent{
				Notes:     highNotes,
				StartTick: uint16(chord.StartTick),
				EndTick:   uint16(chord.EndTick),
			})
			if err != nil {
				return nil, err
			}
		}
	}

	return &arcade.Song{
		Measures:        measures,
		BeatsPerMeasure: BeatsPerMeasure,
		BeatsPerMinute:  uint16(q.BeatsPerMinute()),
		TicksPerBeat:    TicksPerBeat,
		Tracks:          []*arcade.Track{low, high},
	}, nil
}

// Small struct for non-fatal warnings
type ParseWarning struct {
	Index   int // Index of the event the warning is about.
	Message string
}

func (pw ParseWarning) String() string {
	return fmt.Sprintf("event %d: %s", pw.Index, pw.Message)
}

type Parser struct {
	events []Event
	logger *log.Logger

	// Collect any warnings whilst parsing.
	warnings []ParseWarning

	// Parsing can only be done once per Parser.
	used bool
}

// NewParser creates a new parser to convert a stream of events.
func NewParser(events []Event, logger *log.Logger) *Parser {
	if logger == nil {
		logger = log.Default()
	}
	return &Parser{
		events: events,
		logger: logger,
	}
}

// addWarning adds to the list of warnings encountered when parsing.
func (p *Parser) addWarning(index int, format string, args ...any) {
	p.warnings = append(p.warnings, ParseWarning{
		Index:   index,
		Message: fmt.Sprintf(format, args...),
	})
}

// Warnings returns the warnings produced by Parse.
func (p *Parser) Warnings() []ParseWarning {
	return p.warnings
}

// collectNotes pairs every note on with its note off and places it on the tick grid.
func (p *Parser) collectNotes(q Quantizer) []NoteSpan {
	var spans []NoteSpan
	currentMs := 0
	for i, event := range p.events {
		currentMs += roundHalfEven(event.Time * 1000)
		if !event.startsNote() {
			continue
		}

		seconds, ended := NoteDuration(p.events, i)
		endTick := q.Ticks(currentMs) + q.Ticks(roundHalfEven(seconds*1000))

		spans = append(spans, NoteSpan{
			Pitch:     int(event.Note),
			StartTick: q.Quantize(currentMs),
			EndTick:   q.Scale(endTick),
			Index:     i,
			Ended:     ended,
		})
	}
	return spans
}

// Parse converts the events into a song.
func (p *Parser) Parse(opts Options) (*arcade.Song, error) {
	if p.used {
		return nil, fmt.Errorf("parser already used")
	}
	p.used = true

	q, err := NewQuantizer(opts.Divisor)
	if err != nil {
		return nil, err
	}
	// Resolve the track before doing any work so a bad selector fails fast.
	if _, err := newPianoTrack(opts.Track, LowOctave); err != nil {
		return nil, err
	}

	spans := p.collectNotes(q)
	p.logger.Printf("Found %d notes in %d events", len(spans), len(p.events))
	for _, span := range spans {
		if !span.Ended {
			p.addWarning(span.Index, "note %d is never released, holding it until the end of the song", span.Pitch)
		}
	}

	endTick := LastTick(spans)
	p.logger.Printf("Last tick is %d", endTick)

	chords := AssembleChords(spans)
	for _, chord := range chords {
		if chord.MismatchedEnds > 0 {
			index := p.firstSpanAt(spans, chord.StartTick)
			p.addWarning(index, "%d notes at tick %d end at a different tick than the chord, using tick %d",
				chord.MismatchedEnds, chord.StartTick, chord.EndTick)
		}
	}
	p.logger.Printf("Assembled %d chords", len(chords))

	song, err := BuildSong(chords, endTick, opts.Track, q)
	if err != nil {
		return nil, err
	}

	for i, track := range song.Tracks {
		p.logger.Printf("Created %d note events in track %d", len(track.Notes), i)
	}
	p.logger.Printf("Measures: %d, ticks per beat: %d, beats per measure: %d, beats per minute: %d",
		song.Measures, song.TicksPerBeat, song.BeatsPerMeasure, song.BeatsPerMinute)
	p.logger.Printf("Maximum number of ticks is %d", song.TickLimit())

	if len(p.warnings) > 0 {
		p.logger.Println("Warnings produced while parsing events:")
		for _, warning := range p.warnings {
			p.logger.Printf("%v", warning)
		}
	}

	return song, nil
}

func (p *Parser) firstSpanAt(spans []NoteSpan, startTick int) int {
	for _, span := range spans {
		if span.StartTick == startTick {
			return span.Index
		}
	}
	return -1
}
