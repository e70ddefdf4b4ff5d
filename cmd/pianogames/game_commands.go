package main

import (
	"github.com/spf13/cobra"

	"github.com/ayusman/pianogames/internal/app"
)

func newGameCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newConductorCommand(ctx),
		newAirPianoCommand(ctx),
		newSingCommand(ctx),
		newMimiCommand(ctx),
		newMIDITestCommand(ctx),
	}
}

func newConductorCommand(ctx *commandContext) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "conductor [FILE.mid]",
		Short: "Conduct a MIDI file with your movement",
		Long: "Plays FILE.mid with a tempo that follows how much you move in front of the camera.\n" +
			"Without a file, a menu lets you pick one from --dir and tune the conductor.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.newApp(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return a.Conductor(cmd.Context(), args[0])
			}
			return a.ConductorMenu(cmd.Context(), ctx.console(cmd), dir)
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Directory the menu lists MIDI files from")
	return cmd
}

func newAirPianoCommand(ctx *commandContext) *cobra.Command {
	var opts app.AirPianoOptions

	cmd := &cobra.Command{
		Use:   "airpiano",
		Short: "Play chords by curling your fingers in the air",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.newApp(cmd.Context())
			if err != nil {
				return err
			}
			return a.AirPiano(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolVar(&opts.Tray, "tray", false, "Show Pause, Change mood and Quit in the system tray")
	return cmd
}

func newSingCommand(ctx *commandContext) *cobra.Command {
	var wav string
	var direct bool

	cmd := &cobra.Command{
		Use:   "sing",
		Short: "Sing and hear your voice on the piano",
		Long: "Follows the pitch of the microphone (or --wav) and plays it on the piano over a\n" +
			"blues accompaniment. A settings menu is shown first unless --start is given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.newApp(cmd.Context())
			if err != nil {
				return err
			}
			if direct {
				return a.Sing(cmd.Context(), wav)
			}
			return a.SingingMenu(cmd.Context(), ctx.console(cmd), wav)
		},
	}
	cmd.Flags().StringVar(&wav, "wav", "", "Read the voice from a WAV file instead of the microphone")
	cmd.Flags().BoolVar(&direct, "start", false, "Start singing without the menu")
	return cmd
}

func newMimiCommand(ctx *commandContext) *cobra.Command {
	var opts app.MimiOptions

	cmd := &cobra.Command{
		Use:   "mimi",
		Short: "Let your facial expression bend a classical piece",
		Long: "Plays --file, or a random piece of the configured key, altering its notes\n" +
			"according to the expression read from the camera. Without flags a menu is shown.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.newApp(cmd.Context())
			if err != nil {
				return err
			}
			if opts.File == "" && !cmd.Flags().Changed("manual") {
				return a.MimiMenu(cmd.Context(), ctx.console(cmd))
			}
			return a.Mimi(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "MIDI file to play")
	cmd.Flags().BoolVar(&opts.Manual, "manual", false, "Use the configured mood instead of the camera")
	return cmd
}

func newMIDITestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "miditest",
		Short: "Play a C major scale to check the MIDI output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.newApp(cmd.Context())
			if err != nil {
				return err
			}
			return a.MIDITest(cmd.Context())
		},
	}
}
