package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"murmur/internal/config"
	"murmur/internal/pipeline"
	"murmur/internal/services"
)

type transcribeFlags struct {
	formats     []string
	outputDir   string
	model       string
	backend     string
	concurrency int
	language    string
	beamSize    int
	partial     bool
	audioOut    string
	noCache     bool
	jsonOut     bool
}

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var flags transcribeFlags

	cmd := &cobra.Command{
		Use:   "transcribe <file>",
		Short: "Transcribe an audio or video file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg, err := applyTranscribeOverrides(cmd, base, flags)
			if err != nil {
				return err
			}
			console, err := ctx.consoleLogger(cfg)
			if err != nil {
				return err
			}

			session := pipeline.NewSession(cfg, console)
			defer session.Close()

			runner, err := pipeline.NewRunner(pipeline.Options{
				Config:  cfg,
				Logger:  session.Logger,
				RunID:   session.RunID,
				Backend: backendFactory,
			})
			if err != nil {
				return err
			}
			report, runErr := runner.Run(cmd.Context(), pipeline.Request{
				Input:     args[0],
				OutputDir: flags.outputDir,
				Formats:   flags.formats,
				AudioOut:  flags.audioOut,
				NoCache:   flags.noCache,
			})
			report.LogPath = session.LogPath

			if flags.jsonOut {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				printReport(cmd.OutOrStdout(), report)
			}
			return runErr
		},
	}

	cmd.Flags().StringSliceVarP(&flags.formats, "format", "f", nil, "Output format: text, subtitle, srt, vtt, json (repeatable or comma separated)")
	cmd.Flags().StringVarP(&flags.outputDir, "output", "o", "", "Directory for output files (default: output.dir or the input's directory)")
	cmd.Flags().StringVar(&flags.model, "model", "", "Override inference.model")
	cmd.Flags().StringVar(&flags.backend, "backend", "", "Override inference.backend (faster-whisper, whisperx, openai)")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 0, "Override inference.concurrency")
	cmd.Flags().StringVar(&flags.language, "language", "", "Spoken language code (default: auto-detect)")
	cmd.Flags().IntVar(&flags.beamSize, "beam-size", 0, "Override inference.beam_size")
	cmd.Flags().BoolVar(&flags.partial, "partial", false, "Keep going when a chunk fails and record a gap")
	cmd.Flags().StringVar(&flags.audioOut, "audio-out", "", "Also save the decoded waveform as a WAV file")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "Bypass the chunk result cache")
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "Print the run report as JSON")
	return cmd
}

// applyTranscribeOverrides returns a copy of base with the changed flags
// applied and revalidated.
func applyTranscribeOverrides(cmd *cobra.Command, base *config.Config, flags transcribeFlags) (*config.Config, error) {
	cfg := *base
	cfg.Output.Formats = append([]string(nil), base.Output.Formats...)
	changed := cmd.Flags().Changed

	if changed("model") {
		cfg.Inference.Model = strings.ToLower(strings.TrimSpace(flags.model))
		cfg.Inference.APIModel = strings.TrimSpace(flags.model)
	}
	if changed("backend") {
		cfg.Inference.Backend = strings.ToLower(strings.TrimSpace(flags.backend))
	}
	if changed("concurrency") {
		cfg.Inference.Concurrency = flags.concurrency
	}
	if changed("language") {
		cfg.Inference.Language = strings.ToLower(strings.TrimSpace(flags.language))
	}
	if changed("beam-size") {
		cfg.Inference.BeamSize = flags.beamSize
	}
	if changed("partial") {
		cfg.Inference.PartialOutput = flags.partial
	}
	if err := cfg.Validate(); err != nil {
		return nil, services.Wrap(services.ErrValidation, "", "flags", "invalid option", err)
	}
	return &cfg, nil
}

func printReport(out io.Writer, report *pipeline.Report) {
	if report == nil {
		return
	}
	st := newStyles(out)
	for _, artifact := range report.Outputs {
		fmt.Fprintf(out, "%s %s\n", st.ok("Wrote "+string(artifact.Format)+":"), artifact.Path)
	}
	if report.AudioOut != "" {
		fmt.Fprintf(out, "%s %s\n", st.ok("Wrote audio:"), report.AudioOut)
	}
	for _, gap := range report.Gaps {
		fmt.Fprintln(out, st.warn(fmt.Sprintf("Gap %.2fs-%.2fs (chunk %d): %s", gap.Start, gap.End, gap.Chunk, gap.Reason)))
	}
	if n := len(report.LowConfidence); n > 0 {
		fmt.Fprintln(out, st.warn(fmt.Sprintf("%d segment(s) below the confidence threshold", n)))
	}

	rows := [][]string{
		{"Run", report.RunID},
		{"Engine", valueOrDash(report.Engine)},
		{"Audio", fmt.Sprintf("%.1fs", report.AudioSeconds)},
		{"Chunks", fmt.Sprintf("%d (%d cached)", report.Chunks, report.CacheHits)},
		{"Segments", fmt.Sprintf("%d", report.Segments)},
		{"Duplicates removed", fmt.Sprintf("%d", report.Merge.Duplicates)},
		{"Filtered", fmt.Sprintf("%d", len(report.Filtered))},
		{"Partial", yesNo(report.Partial())},
		{"Elapsed", fmt.Sprintf("%.1fs", report.ElapsedSecs)},
	}
	if report.FailedStage != "" {
		rows = append(rows, []string{"Failed stage", report.FailedStage})
	}
	if report.LogPath != "" {
		rows = append(rows, []string{"Run log", report.LogPath})
	}
	fmt.Fprintln(out, st.heading("Summary"))
	fmt.Fprintln(out, renderFields(rows))
}

func valueOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
