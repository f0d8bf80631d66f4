package arcade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupTrackByIDAndName(t *testing.T) {
	byID, err := LookupTrack("0")
	require.NoError(t, err)
	byName, err := LookupTrack("DOG")
	require.NoError(t, err)

	assert.Equal(t, byID, byName)
	assert.Equal(t, "Dog", byID.Name)
	assert.Equal(t, uint8(4), byID.Instrument.Octave)
}

func TestLookupTrackUnknown(t *testing.T) {
	for _, selector := range []string{"giraffe", "42", "-1", "300", ""} {
		_, err := LookupTrack(selector)
		assert.ErrorIs(t, err, ErrConfiguration, "selector %q", selector)
	}
}

func TestLookupTrackReturnsFreshValues(t *testing.T) {
	first, err := LookupTrack("duck")
	require.NoError(t, err)
	second, err := LookupTrack("duck")
	require.NoError(t, err)

	first.Instrument.Octave = 7
	first.Instrument.PitchEnvelope.Attack = 999
	require.NoError(t, first.AddNoteEvent(NoteEvent{Notes: []Note{{Pitch: 60}}}))

	assert.Equal(t, uint8(4), second.Instrument.Octave)
	assert.Equal(t, uint16(5), second.Instrument.PitchEnvelope.Attack)
	assert.Empty(t, second.Notes)

	third, err := LookupTrack("duck")
	require.NoError(t, err)
	assert.Equal(t, second, third)
}

func TestPresetsOrderedByID(t *testing.T) {
	tracks := Presets()
	require.NotEmpty(t, tracks)
	for i, track := range tracks {
		assert.Equal(t, uint8(i), track.ID)
	}

	drums, err := LookupTrack("drums")
	require.NoError(t, err)
	assert.True(t, drums.IsDrumTrack())
}
