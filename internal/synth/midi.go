package synth

import (
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// keyRoots maps a tonic name to its MIDI root note (middle octave).
var keyRoots = map[string]uint8{
	"C": 60, "C#": 61, "D": 62, "D#": 63, "E": 64, "F": 65,
	"F#": 66, "G": 67, "G#": 68, "A": 69, "A#": 70, "B": 71,
}

const (
	ticksPerQuarter = 480
	beatsPerChord   = 4
	chordVelocity   = 80
	melodyVelocity  = 100
)

type midiEvent struct {
	tick uint32
	on   bool
	key  uint8
	vel  uint8
}

// WriteMelody writes a procedural type-0 MIDI melody to path: an I-V-vi-IV
// chord progression in the given key with a simple octave-up melody line,
// repeated to fill the requested duration. Unknown keys fall back to C.
func WriteMelody(path, key string, bpm, durationSec int) error {
	if bpm <= 0 {
		bpm = 120
	}
	root, ok := keyRoots[key]
	if !ok {
		root = keyRoots["C"]
	}

	chords := [][]uint8{
		{root, root + 4, root + 7},       // I
		{root + 7, root + 11, root + 14}, // V
		{root + 9, root + 12, root + 16}, // vi
		{root + 5, root + 9, root + 12},  // IV
	}

	totalBeats := durationSec * bpm / 60
	progressionBeats := len(chords) * beatsPerChord
	repeats := totalBeats / progressionBeats
	if repeats < 1 {
		repeats = 1
	}

	var events []midiEvent
	addNote := func(startBeat int, lengthBeats int, key uint8, vel uint8) {
		start := uint32(startBeat * ticksPerQuarter)
		end := start + uint32(lengthBeats*ticksPerQuarter)
		events = append(events,
			midiEvent{tick: start, on: true, key: key, vel: vel},
			midiEvent{tick: end, on: false, key: key},
		)
	}

	beat := 0
	for r := 0; r < repeats; r++ {
		for _, chord := range chords {
			for _, note := range chord {
				addNote(beat, beatsPerChord, note, chordVelocity)
			}
			// Melody line an octave above the chord root.
			addNote(beat, 1, chord[0]+12, melodyVelocity)
			addNote(beat+1, 1, chord[0]+14, melodyVelocity)
			addNote(beat+2, 2, chord[0]+12, melodyVelocity)
			beat += beatsPerChord
		}
	}

	// Note-off before note-on at the same tick keeps repeated pitches from
	// being silenced by the previous repetition's release.
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return !events[i].on && events[j].on
	})

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	var tr smf.Track
	tr.Add(0, smf.MetaTempo(float64(bpm)))

	var last uint32
	for _, ev := range events {
		delta := ev.tick - last
		last = ev.tick
		if ev.on {
			tr.Add(delta, midi.NoteOn(0, ev.key, ev.vel))
		} else {
			tr.Add(delta, midi.NoteOff(0, ev.key))
		}
	}
	tr.Close(0)
	s.Add(tr)

	return s.WriteFile(path)
}
