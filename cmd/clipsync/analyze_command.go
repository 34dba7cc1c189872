package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"clipsync/internal/analysis"
	"clipsync/internal/analysiscache"
	"clipsync/internal/config"
	"clipsync/internal/logging"
	"clipsync/internal/lyrics"
	"clipsync/internal/parser"
)

type analyzeOptions struct {
	jobID       string
	breakpoints string
	wordsPath   string
	maxClips    int
	jsonOutput  bool
	noCache     bool
}

// fileResult is the JSON shape of one file in batch output.
type fileResult struct {
	File     string                  `json:"file"`
	Analysis *analysis.AudioAnalysis `json:"analysis,omitempty"`
	Error    string                  `json:"error,omitempty"`
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze FILE...",
		Short: "Analyze audio files into beats, structure, mood, and clip boundaries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runAnalyze(cmd, ctx, cfg, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.jobID, "job-id", "", "Job reference for the result (suffixed per file in batches)")
	cmd.Flags().StringVar(&opts.breakpoints, "breakpoints", "", "Comma separated structural breakpoints in seconds")
	cmd.Flags().StringVar(&opts.wordsPath, "words", "", "JSON file of timestamped lyric words")
	cmd.Flags().IntVar(&opts.maxClips, "max-clips", 0, "Clip count ceiling (overrides engine.max_clips)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print the full analysis as JSON")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "Skip the result cache")
	return cmd
}

func runAnalyze(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, files []string, opts analyzeOptions) error {
	breakpoints, err := parseBreakpoints(opts.breakpoints)
	if err != nil {
		return err
	}
	words, err := loadWords(opts.wordsPath)
	if err != nil {
		return err
	}
	if opts.maxClips < 0 {
		return errors.New("--max-clips must not be negative")
	}

	logger := ctx.logger()
	var cache *analysiscache.Cache
	if !opts.noCache {
		cache, err = analysiscache.Open(cfg, logger)
		if err != nil {
			logging.WarnWithContext(logger, "result cache unavailable", "cache_open_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run 'clipsync doctor' or 'clipsync cache clear'"),
				logging.String(logging.FieldImpact, "results will not be cached"))
			cache = nil
		}
	}
	defer cache.Close()

	reqs := make([]parser.Request, 0, len(files))
	for i, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}
		reqs = append(reqs, parser.Request{
			JobReference: jobReferenceFor(opts.jobID, file, i, len(files)),
			Audio:        data,
			Breakpoints:  breakpoints,
			Words:        words,
			MaxClips:     opts.maxClips,
		})
	}

	pool := parser.NewPool(parser.New(cfg, cache, logger), cfg.Engine.Workers)
	outcomes := pool.Run(cmd.Context(), reqs)

	failed := 0
	for _, out := range outcomes {
		if out.Err != nil {
			failed++
		}
	}

	if opts.jsonOutput {
		if err := writeAnalyzeJSON(cmd, files, outcomes); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		color := shouldColorize(w)
		for i, out := range outcomes {
			if i > 0 {
				fmt.Fprintln(w)
			}
			if out.Err != nil {
				fmt.Fprintf(w, "%s: %s\n", files[i], colorize(out.Err.Error(), ansiYellow, color))
				continue
			}
			fmt.Fprint(w, renderAnalysis(files[i], out.Analysis, color))
		}
	}

	if failed > 0 {
		if len(files) == 1 {
			return outcomes[0].Err
		}
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

func writeAnalyzeJSON(cmd *cobra.Command, files []string, outcomes []parser.Outcome) error {
	if len(outcomes) == 1 && outcomes[0].Err == nil {
		return writeJSON(cmd, outcomes[0].Analysis)
	}
	results := make([]fileResult, len(outcomes))
	for i, out := range outcomes {
		results[i] = fileResult{File: files[i], Analysis: out.Analysis}
		if out.Err != nil {
			results[i].Error = out.Err.Error()
		}
	}
	return writeJSON(cmd, results)
}

// jobReferenceFor picks the job reference for file i of n. Without --job-id
// the file name stem is used.
func jobReferenceFor(jobID, file string, i, n int) string {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}
	if n == 1 {
		return jobID
	}
	return fmt.Sprintf("%s-%d", jobID, i+1)
}

func parseBreakpoints(value string) ([]float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parts := strings.Split(value, ",")
	points := make([]float64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid breakpoint %q", part)
		}
		points = append(points, v)
	}
	return points, nil
}

func loadWords(path string) ([]lyrics.Word, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve words path: %w", err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("read words: %w", err)
	}
	var words []lyrics.Word
	if err := json.Unmarshal(data, &words); err != nil {
		return nil, fmt.Errorf("parse words %s: %w", expanded, err)
	}
	return words, nil
}
