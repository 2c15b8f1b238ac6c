package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"murmur/internal/config"
	"murmur/internal/logging"
	"murmur/internal/pipeline"
)

// version is reported to MCP clients.
var version = "dev"

func newMCPCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve transcription tools over the Model Context Protocol (stdio)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.consoleLogger(cfg)
			if err != nil {
				return err
			}
			tools := &toolHandler{cfg: cfg, logger: logger, backend: backendFactory}
			logger.Info("mcp server starting", logging.String(logging.FieldEventType, "mcp_start"))
			return server.ServeStdio(tools.server())
		},
	}
}

// toolHandler implements the MCP tools on top of the pipeline.
type toolHandler struct {
	cfg    *config.Config
	logger *slog.Logger
	// backend overrides the configured inference backend; nil uses config.
	backend pipeline.BackendFactory
}

func (h *toolHandler) server() *server.MCPServer {
	s := server.NewMCPServer("murmur", version, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("transcribe",
		mcp.WithDescription("Transcribe an audio or video file and return the transcript"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute path of the media file")),
		mcp.WithString("format", mcp.Description("Output format: text, subtitle, srt, vtt or json (default text)")),
		mcp.WithString("language", mcp.Description("Spoken language code; empty auto-detects")),
	), h.transcribe)

	s.AddTool(mcp.NewTool("plan_chunks",
		mcp.WithDescription("Decode a media file and return its chunk plan as JSON without transcribing"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute path of the media file")),
	), h.planChunks)

	return s
}

func (h *toolHandler) transcribe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format := strings.TrimSpace(request.GetString("format", "text"))
	if format == "" {
		format = "text"
	}

	cfg := *h.cfg
	if lang := strings.TrimSpace(request.GetString("language", "")); lang != "" {
		cfg.Inference.Language = strings.ToLower(lang)
	}

	session := pipeline.NewSession(&cfg, h.logger)
	defer session.Close()
	runner, err := pipeline.NewRunner(pipeline.Options{
		Config:  &cfg,
		Logger:  session.Logger,
		RunID:   session.RunID,
		Backend: h.backend,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report, err := runner.Run(ctx, pipeline.Request{Input: path, Formats: []string{format}})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("transcription failed at %s: %v", report.FailedStage, err)), nil
	}
	if len(report.Outputs) == 0 {
		return mcp.NewToolResultError("transcription produced no output"), nil
	}
	data, err := os.ReadFile(report.Outputs[0].Path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read transcript: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (h *toolHandler) planChunks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	plan, err := planChunks(ctx, h.cfg, h.logger, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := jsonText(plan)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}
