package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"murmur/internal/audio"
	"murmur/internal/config"
	"murmur/internal/segment"
	"murmur/internal/services"
)

// chunkView is the machine-readable form of a planned chunk.
type chunkView struct {
	Index    int     `json:"index"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	CutStart float64 `json:"cut_start"`
	CutEnd   float64 `json:"cut_end"`
	Duration float64 `json:"duration"`
	Reason   string  `json:"reason"`
}

type chunkPlan struct {
	Input        string      `json:"input"`
	AudioSeconds float64     `json:"audio_seconds"`
	SampleRate   int         `json:"sample_rate"`
	Chunks       []chunkView `json:"chunks"`
}

func newChunksCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "chunks <file>",
		Short: "Decode a file and show the chunk plan without transcribing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.consoleLogger(cfg)
			if err != nil {
				return err
			}
			plan, err := planChunks(cmd.Context(), cfg, logger, args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, plan)
			}

			out := cmd.OutOrStdout()
			st := newStyles(out)
			fmt.Fprintln(out, st.heading(fmt.Sprintf("%s: %.1fs, %d chunk(s)", plan.Input, plan.AudioSeconds, len(plan.Chunks))))
			rows := make([][]string, 0, len(plan.Chunks))
			for _, c := range plan.Chunks {
				rows = append(rows, []string{
					fmt.Sprintf("%d", c.Index),
					fmt.Sprintf("%.2f", c.CutStart),
					fmt.Sprintf("%.2f", c.CutEnd),
					fmt.Sprintf("%.2f", c.Start),
					fmt.Sprintf("%.2f", c.End),
					fmt.Sprintf("%.2f", c.Duration),
					c.Reason,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Cut start", "Cut end", "Start", "End", "Length", "Cut"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the chunk plan as JSON")
	return cmd
}

// planChunks runs the decode and segment stages only.
func planChunks(ctx context.Context, cfg *config.Config, logger *slog.Logger, path string) (chunkPlan, error) {
	decoder := audio.New(audio.Options{
		Mode:          cfg.Audio.Decoder,
		SampleRate:    cfg.Audio.SampleRate,
		FFmpegBinary:  cfg.Audio.FFmpegBinary,
		FFprobeBinary: cfg.Audio.FFprobeBinary,
		Language:      cfg.Inference.Language,
		Logger:        logger,
	})
	wave, err := decoder.Decode(ctx, path)
	if err != nil {
		return chunkPlan{}, err
	}
	chunks, err := segment.Plan(wave, segment.OptionsFromConfig(cfg.Segmenter))
	if err != nil {
		return chunkPlan{}, services.Wrap(services.ErrValidation, services.StageSegment, "plan", "segmentation failed", err)
	}
	plan := chunkPlan{
		Input:        path,
		AudioSeconds: wave.Duration(),
		SampleRate:   wave.SampleRate,
		Chunks:       make([]chunkView, 0, len(chunks)),
	}
	for _, c := range chunks {
		plan.Chunks = append(plan.Chunks, chunkView{
			Index:    c.Index,
			Start:    c.StartSeconds(),
			End:      c.EndSeconds(),
			CutStart: c.CutStartSeconds(),
			CutEnd:   c.CutEndSeconds(),
			Duration: c.Duration(),
			Reason:   c.Reason,
		})
	}
	return plan, nil
}
