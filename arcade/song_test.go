package arcade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteValue(t *testing.T) {
	assert.Equal(t, 14, NoteValue(49, 4))
	assert.Equal(t, 63, NoteValue(74, 2))
	assert.Equal(t, 64, NoteValue(75, 2))
	assert.Equal(t, 4, NoteValue(75, 7))

	assert.True(t, Note{Pitch: 74}.Fits(2))
	assert.False(t, Note{Pitch: 75}.Fits(2))
	assert.False(t, Note{Pitch: 10}.Fits(2))

	assert.False(t, Note{Pitch: 74}.TooHigh(2))
	assert.True(t, Note{Pitch: 75}.TooHigh(2))
	assert.False(t, Note{Pitch: 10}.TooHigh(2), "notes below the range are not too high")
}

func TestAddNoteEventValidates(t *testing.T) {
	track, err := TrackByID(0)
	require.NoError(t, err)

	assert.Error(t, track.AddNoteEvent(NoteEvent{StartTick: 1, EndTick: 2}))
	assert.Error(t, track.AddNoteEvent(NoteEvent{Notes: []Note{{Pitch: 60}}, StartTick: 5, EndTick: 2}))
	assert.Error(t, track.AddNoteEvent(NoteEvent{Notes: []Note{{Pitch: 60, Spelling: EnharmonicSpelling(7)}}}))

	tooMany := make([]Note, 256)
	assert.ErrorIs(t, track.AddNoteEvent(NoteEvent{Notes: tooMany}), ErrEncodingOverflow)

	assert.Empty(t, track.Notes)
	require.NoError(t, track.AddNoteEvent(NoteEvent{Notes: []Note{{Pitch: 60}}, StartTick: 2, EndTick: 2}))
	assert.Len(t, track.Notes, 1)
}

func TestMeasuresFor(t *testing.T) {
	measures, err := MeasuresFor(0, 100, 10)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), measures)

	measures, err = MeasuresFor(1001, 100, 10)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), measures)

	measures, err = MeasuresFor(255*1000, 100, 10)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), measures)

	_, err = MeasuresFor(255*1000+1, 100, 10)
	assert.ErrorIs(t, err, ErrRange)
}

func TestSongString(t *testing.T) {
	song := EmptySong(2)
	require.NoError(t, song.Tracks[0].AddNoteEvent(NoteEvent{
		Notes:   []Note{{Pitch: 49}, {Pitch: 53, Spelling: Flat}},
		EndTick: 8,
	}))

	out := song.String()
	assert.Contains(t, out, "- Measures: 2")
	assert.Contains(t, out, "Dog (octave 4)")
	assert.Contains(t, out, "0-8: 49 53b")
	assert.Contains(t, out, "[Total song size: 48 bytes]")
}
