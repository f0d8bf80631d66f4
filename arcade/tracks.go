package arcade

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// The music editor's built-in tracks, in id order.
// Never hand these out directly; lookups return clones.
var presets = []Track{
	{
		ID: 0, Name: "Dog", IconURI: "/static/music-editor/dog.png",
		Instrument: Instrument{
			Waveform:    1,
			Octave:      4,
			AmpEnvelope: Envelope{Attack: 10, Decay: 100, Sustain: 500, Release: 100, Amplitude: 1024},
			PitchLFO:    &LFO{Frequency: 5, Amplitude: 0},
		},
	},
	{
		ID: 1, Name: "Duck", IconURI: "/static/music-editor/duck.png",
		Instrument: Instrument{
			Waveform:      15,
			Octave:        4,
			AmpEnvelope:   Envelope{Attack: 5, Decay: 530, Sustain: 705, Release: 450, Amplitude: 1024},
			PitchEnvelope: &Envelope{Attack: 5, Decay: 40, Sustain: 0, Release: 100, Amplitude: 40},
			AmpLFO:        &LFO{Frequency: 3, Amplitude: 20},
			PitchLFO:      &LFO{Frequency: 6, Amplitude: 2},
		},
	},
	{
		ID: 2, Name: "Cat", IconURI: "/static/music-editor/cat.png",
		Instrument: Instrument{
			Waveform:      12,
			Octave:        5,
			AmpEnvelope:   Envelope{Attack: 150, Decay: 100, Sustain: 365, Release: 400, Amplitude: 1024},
			PitchEnvelope: &Envelope{Attack: 120, Decay: 0, Sustain: 0, Release: 100, Amplitude: 30},
			PitchLFO:      &LFO{Frequency: 10, Amplitude: 6},
		},
	},
	{
		ID: 3, Name: "Fish", IconURI: "/static/music-editor/fish.png",
		Instrument: Instrument{
			Waveform:    1,
			Octave:      3,
			AmpEnvelope: Envelope{Attack: 220, Decay: 105, Sustain: 1000, Release: 350, Amplitude: 1024},
			AmpLFO:      &LFO{Frequency: 3, Amplitude: 20},
		},
	},
	{
		ID: 4, Name: "Car", IconURI: "/static/music-editor/car.png",
		Instrument: Instrument{
			Waveform:    16,
			Octave:      4,
			AmpEnvelope: Envelope{Attack: 5, Decay: 100, Sustain: 1000, Release: 100, Amplitude: 256},
			PitchLFO:    &LFO{Frequency: 4, Amplitude: 3},
		},
	},
	{
		ID: 5, Name: "Computer", IconURI: "/static/music-editor/computer.png",
		Instrument: Instrument{
			Waveform:    15,
			Octave:      2,
			AmpEnvelope: Envelope{Attack: 10, Decay: 100, Sustain: 500, Release: 10, Amplitude: 512},
		},
	},
	{
		ID: 6, Name: "Burger", IconURI: "/static/music-editor/burger.png",
		Instrument: Instrument{
			Waveform:      1,
			Octave:        2,
			AmpEnvelope:   Envelope{Attack: 10, Decay: 460, Sustain: 240, Release: 60, Amplitude: 512},
			PitchEnvelope: &Envelope{Attack: 10, Decay: 160, Sustain: 0, Release: 10, Amplitude: 100},
		},
	},
	{
		ID: 7, Name: "Cherry", IconURI: "/static/music-editor/cherry.png",
		Instrument: Instrument{
			Waveform:    2,
			Octave:      3,
			AmpEnvelope: Envelope{Attack: 10, Decay: 100, Sustain: 500, Release: 100, Amplitude: 1024},
		},
	},
	{
		ID: 8, Name: "Lemon", IconURI: "/static/music-editor/lemon.png",
		Instrument: Instrument{
			Waveform:      14,
			Octave:        2,
			AmpEnvelope:   Envelope{Attack: 5, Decay: 70, Sustain: 870, Release: 50, Amplitude: 1024},
			PitchEnvelope: &Envelope{Attack: 10, Decay: 45, Sustain: 0, Release: 100, Amplitude: 40},
			AmpLFO:        &LFO{Frequency: 3, Amplitude: 100},
		},
	},
	{
		ID: 9, Name: "Drums", IconURI: "/static/music-editor/explosion.png",
		Instrument: Instrument{
			Waveform:    11,
			Octave:      4,
			AmpEnvelope: Envelope{Attack: 10, Decay: 100, Sustain: 500, Release: 100, Amplitude: 1024},
		},
		Drums: []DrumInstrument{
			{ // Kick
				StartFrequency: 100, StartVolume: 1024,
				Steps: []DrumSoundStep{{Waveform: 3, Frequency: 120, Volume: 1024, Duration: 10}, {Waveform: 3, Frequency: 1, Volume: 0, Duration: 100}},
			},
			{ // Snare
				StartFrequency: 800, StartVolume: 1024,
				Steps: []DrumSoundStep{{Waveform: 5, Frequency: 600, Volume: 1024, Duration: 10}, {Waveform: 5, Frequency: 300, Volume: 0, Duration: 150}},
			},
			{ // Hi-hat
				StartFrequency: 4000, StartVolume: 512,
				Steps: []DrumSoundStep{{Waveform: 5, Frequency: 4000, Volume: 0, Duration: 50}},
			},
		},
	},
}

// presetsByName maps lower case track names to their index in presets.
var presetsByName = indexPresetNames(presets)

func indexPresetNames(tracks []Track) map[string]int {
	out := make(map[string]int, len(tracks))
	for i, track := range tracks {
		out[strings.ToLower(track.Name)] = i
	}
	return out
}

// Presets returns a fresh copy of every built-in track, ordered by id.
func Presets() []*Track {
	out := make([]*Track, 0, len(presets))
	for i := range presets {
		out = append(out, presets[i].Clone())
	}
	slices.SortFunc(out, func(a, b *Track) int {
		return int(a.ID) - int(b.ID)
	})
	return out
}

// TrackByID returns a fresh copy of the built-in track with the given id.
func TrackByID(id uint8) (*Track, error) {
	for i := range presets {
		if presets[i].ID == id {
			return presets[i].Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: unknown track id %d", ErrConfiguration, id)
}

// LookupTrack resolves a track selector to a fresh copy of a built-in track.
// Selectors that parse as an integer are treated as ids, anything else as a case-insensitive name.
func LookupTrack(selector string) (*Track, error) {
	selector = strings.TrimSpace(selector)
	if id, err := strconv.Atoi(selector); err == nil {
		if id < 0 || id > 255 {
			return nil, fmt.Errorf("%w: unknown track id %d", ErrConfiguration, id)
		}
		return TrackByID(uint8(id))
	}

	i, ok := presetsByName[strings.ToLower(selector)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown track %q", ErrConfiguration, selector)
	}
	return presets[i].Clone(), nil
}
