package midi

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"

	"gitlab.com/gomidi/midi/v2/smf"
)

type EventType int

const (
	OtherEvent EventType = iota // Any message that isn't a note on or note off. Still advances the clock.
	NoteOnEvent
	NoteOffEvent
)

// A single timed event, in the order it is played.
type Event struct {
	Type     EventType
	Note     uint8
	Velocity uint8
	Time     float64 // Seconds since the previous event.
}

// startsNote returns whether the event starts a note. Note ons with zero velocity are note offs.
func (e Event) startsNote() bool {
	return e.Type == NoteOnEvent && e.Velocity > 0
}

// endsNote returns whether the event ends the given note.
func (e Event) endsNote(note uint8) bool {
	if e.Note != note {
		return false
	}
	return e.Type == NoteOffEvent || (e.Type == NoteOnEvent && e.Velocity == 0)
}

// NoteDuration returns the time in seconds from the note on at index start until the first
// following event that ends the same note.
// If the note is never ended, the time until the end of the stream is returned and ended is false.
// start should point at a note on; if it is outside events, 0 and false are returned.
func NoteDuration(events []Event, start int) (seconds float64, ended bool) {
	if start < 0 || start >= len(events) {
		return 0, false
	}
	note := events[start].Note
	for i := start + 1; i < len(events); i++ {
		seconds += events[i].Time
		if events[i].endsNote(note) {
			return seconds, true
		}
	}
	return seconds, false
}

// A message together with its absolute position in the file.
type timedMessage struct {
	absTicks int64
	msg      smf.Message
}

// fromSMF merges every track of a parsed file into a single stream of events.
// Messages at the same tick keep their track order.
func fromSMF(s *smf.SMF) []Event {
	var merged []timedMessage
	for _, track := range s.Tracks {
		var absTicks int64
		for _, event := range track {
			absTicks += int64(event.Delta)
			merged = append(merged, timedMessage{absTicks: absTicks, msg: event.Message})
		}
	}
	slices.SortStableFunc(merged, func(a, b timedMessage) int {
		switch {
		case a.absTicks < b.absTicks:
			return -1
		case a.absTicks > b.absTicks:
			return 1
		default:
			return 0
		}
	})

	events := make([]Event, 0, len(merged))
	var previous int64 // microseconds
	for _, m := range merged {
		now := s.TimeAt(m.absTicks)
		event := Event{
			Type: OtherEvent,
			Time: float64(now-previous) / 1e6,
		}
		previous = now

		var channel, key, velocity uint8
		switch {
		case m.msg.GetNoteOn(&channel, &key, &velocity):
			event.Type = NoteOnEvent
			event.Note = key
			event.Velocity = velocity
		case m.msg.GetNoteOff(&channel, &key, &velocity):
			event.Type = NoteOffEvent
			event.Note = key
			event.Velocity = velocity
		}
		events = append(events, event)
	}
	return events
}

// ReadEvents reads a Standard MIDI File and returns its events from all tracks in play order.
func ReadEvents(r io.Reader) (events []Event, err error) {
	// The smf reader can panic on malformed files.
	defer func() {
		if p := recover(); p != nil {
			events = nil
			err = fmt.Errorf("error parsing midi file: %v", p)
		}
	}()

	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("error parsing midi file: %w", err)
	}
	return fromSMF(s), nil
}

// ReadFile reads the Standard MIDI File at path.
func ReadFile(path string) ([]Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading midi file: %w", err)
	}
	return ReadEvents(bytes.NewReader(data))
}
