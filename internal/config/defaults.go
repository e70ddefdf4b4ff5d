package config

// Bass window anchors.
const (
	BassAnchorFirstPress  = "first_press"
	BassAnchorChordChange = "chord_change"
)

// Scale names for the singing game.
const (
	ScaleBlues     = "blues"
	ScaleChromatic = "chromatic"
)

const (
	defaultDataDir    = "~/.pianogames"
	defaultServerBind = "127.0.0.1:8080"
)

// DefaultPreferredOutputs lists the MIDI ports tried before falling back to the first one.
var DefaultPreferredOutputs = []string{
	"MIDIOUT2 (ESI MIDIMATE eX) 2",
	"Microsoft GS Wavetable Synth 0",
}

// Default returns a Config populated with the built-in values.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:         defaultDataDir,
			ChordsCSV:       "data/chord.csv",
			ProgressionsCSV: "data/progression.csv",
			ExpressionCSV:   "data/expression.csv",
			MusicRoot:       "MusicRoot",
			MaestroCSV:      "",
			WebDir:          "web",
			Cascade:         "models/haarcascade_frontalface_default.xml",
			EmotionModel:    "models/emotion.onnx",
			HandsScript:     "scripts/hands_service.py",
		},
		MIDI: MIDI{
			PreferredOutputs: append([]string(nil), DefaultPreferredOutputs...),
		},
		Logging: Logging{
			Level:  "info",
			Format: "auto",
		},
		Server: Server{
			Bind:           defaultServerBind,
			AllowedOrigins: []string{"*"},
		},
		Conductor: DefaultConductor(),
		AirPiano:  DefaultAirPiano(),
		Singing:   DefaultSinging(),
		Mimipiano: Mimipiano{
			Key:     "C",
			Camera:  0,
			Happy:   100,
			Special: 0,
		},
	}
}

// DefaultConductor returns the conductor defaults; the menu's reset option uses it.
func DefaultConductor() Conductor {
	return Conductor{
		Sensitivity:  10,
		Camera:       0,
		Smoothing:    0.005,
		DefaultBPM:   120,
		MinBPM:       1,
		MaxBPM:       300,
		LevelDivisor: 30,
		MaxScale:     3,
	}
}

// DefaultAirPiano returns the air piano defaults.
func DefaultAirPiano() AirPiano {
	return AirPiano{
		BPM:           120,
		LeftChannel:   1,
		RightChannel:  0,
		VelMin:        40,
		VelMax:        120,
		LeftLow:       40,
		LeftHigh:      96,
		RightLow:      40,
		RightHigh:     96,
		SmoothAlpha:   0.35,
		PressAngle:    165,
		ReleaseAngle:  175,
		UseThumb:      true,
		SimulWindowMS: 100,
		BassAnchor:    BassAnchorFirstPress,
		MaxParticles:  140,
		Mirror:        true,
		Cameras:       []int{0, 1, 2},
		FrameQueue:    4,
		Window:        true,
	}
}

// DefaultSinging returns the singing defaults.
func DefaultSinging() Singing {
	return Singing{
		SampleRate:            44100,
		BlockSize:             1024,
		MinFreq:               80,
		MaxFreq:               1000,
		RMSThreshold:          0.02,
		OctaveShift:           1,
		OctaveDoubling:        1,
		AccOctaveShift:        -1,
		VelocityScale:         200,
		VelocityOffset:        20,
		Window:                3,
		Debounce:              2,
		Scale:                 ScaleBlues,
		ScaleRoot:             60,
		ScaleSteps:            []int{0, 3, 5, 6, 7, 10},
		Accompaniment:         true,
		AccompanimentVelocity: 4,
		AccompanimentHoldMS:   500,
		AccompanimentChannel:  1,
	}
}
