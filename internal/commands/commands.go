// Package commands implements cssbuild subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"cssbuilder/internal/config"
	"cssbuilder/internal/state"
	"cssbuilder/pkg/cssbuilder"
)

// BuildFlags are shared by subcommands producing CSS
func BuildFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "selector", Aliases: []string{"s"}, Usage: "wrap declarations in `SELECTOR` (comma separated list allowed)"},
		&cli.BoolFlag{Name: "minify", Aliases: []string{"m"}, Usage: "do not output tabs and line breaks"},
		&cli.BoolFlag{Name: "strict", Usage: "fail on unrecognized description shapes instead of dropping them"},
		&cli.IntFlag{Name: "max-depth", Usage: "fail when selector nesting exceeds `N` levels (0 - unlimited)"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write result to `PATH` (directory when SOURCE is a directory), default STDOUT"},
	}
}

// applyFlags overrides configuration with explicitly set flags
func applyFlags(cfg *config.Config, cmd *cli.Command) error {
	if cmd.IsSet("selector") {
		cfg.Selector = cmd.String("selector")
	}
	if cmd.IsSet("minify") {
		cfg.Minified = cmd.Bool("minify")
	}
	if cmd.IsSet("strict") {
		cfg.Strict = cmd.Bool("strict")
	}
	if cmd.IsSet("max-depth") {
		cfg.MaxDepth = int(cmd.Int("max-depth"))
	}
	if cmd.IsSet("target") {
		cfg.Embed.Target = cmd.String("target")
	}
	if cmd.IsSet("replace") {
		cfg.Embed.ReplaceStyle = cmd.Bool("replace")
	}
	return cfg.Validate()
}

// Build renders description file(s) into CSS
func Build(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	if err := applyFlags(env.Cfg, cmd); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	b := cssbuilder.New(*env.Cfg, env.Log)

	src, dst := cmd.Args().Get(0), cmd.String("output")
	if src != "" && src != "-" {
		if fi, err := os.Stat(src); err == nil && fi.IsDir() {
			if dst == "" {
				return errors.New("--output directory required when SOURCE is a directory")
			}
			return buildDirectory(env.Log, b, src, dst)
		}
	}

	data, err := readInput(cmd, src)
	if err != nil {
		return err
	}

	result, err := b.BuildYAML(data, "")
	if err != nil {
		return fmt.Errorf("failed to build %s: %w", inputName(src), err)
	}
	logStats(env.Log, inputName(src), result.Stats)

	return writeOutput(cmd, result.CSS, dst)
}

// Attr renders a description into an escaped style attribute value
func Attr(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	if err := applyFlags(env.Cfg, cmd); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	b := cssbuilder.New(*env.Cfg, env.Log)

	src := cmd.Args().Get(0)
	data, err := readInput(cmd, src)
	if err != nil {
		return err
	}

	desc, err := b.DecodeYAML(data)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", inputName(src), err)
	}
	result, err := b.BuildForAttribute(desc)
	if err != nil {
		return fmt.Errorf("failed to build %s: %w", inputName(src), err)
	}
	if result.Stats.NestedDropped > 0 {
		env.Log.Warn("Nested selectors cannot be used in a style attribute, dropped", zap.Int("entries", result.Stats.NestedDropped))
	}

	return writeOutput(cmd, result.CSS, cmd.String("output"))
}

// Embed places generated CSS into an HTML document, either as a <style>
// block or, with --target, as style attributes of matching elements.
func Embed(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	if err := applyFlags(env.Cfg, cmd); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	if cmd.Args().Len() < 2 {
		return errors.New("both DESCRIPTION and HTML are required")
	}
	b := cssbuilder.New(*env.Cfg, env.Log)

	descPath, htmlPath := cmd.Args().Get(0), cmd.Args().Get(1)
	data, err := os.ReadFile(descPath)
	if err != nil {
		return fmt.Errorf("failed to read description %s: %w", descPath, err)
	}
	desc, err := b.DecodeYAML(data)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", descPath, err)
	}

	var result *cssbuilder.EmbedResult
	if env.Cfg.Embed.Target != "" {
		result, err = b.ApplyInlineStyleFile(htmlPath, desc, env.Cfg.Embed.Target)
	} else {
		result, err = b.EmbedStylesheetFile(htmlPath, desc, "")
	}
	if err != nil {
		return fmt.Errorf("failed to embed into %s: %w", htmlPath, err)
	}
	logStats(env.Log, descPath, result.Stats)

	return writeOutput(cmd, result.HTML, cmd.String("output"))
}

// DumpConfig outputs the actual or default configuration as YAML
func DumpConfig(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	cfg := *env.Cfg
	if cmd.Bool("default") {
		cfg = config.Default()
	}
	data, err := config.Dump(cfg)
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}
	return writeOutput(cmd, string(data), cmd.Args().Get(0))
}

// buildDirectory processes every description file under dir, continuing
// past failures and reporting all of them
func buildDirectory(log *zap.Logger, b *cssbuilder.Builder, dir, outDir string) error {
	files, err := findDescriptionFiles(dir)
	if err != nil {
		return fmt.Errorf("failed to find description files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no description files found in directory: %s", dir)
	}

	var errs error
	for i, inputPath := range files {
		log.Debug("Processing", zap.Int("n", i+1), zap.Int("of", len(files)), zap.String("file", inputPath))

		data, err := os.ReadFile(inputPath)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to read %s: %w", inputPath, err))
			continue
		}

		result, err := b.BuildYAML(data, "")
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to build %s: %w", inputPath, err))
			continue
		}

		relPath, _ := filepath.Rel(dir, inputPath)
		outputPath := filepath.Join(outDir, strings.TrimSuffix(relPath, filepath.Ext(relPath))+".css")
		if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to create output directory: %w", err))
			continue
		}
		if err := os.WriteFile(outputPath, []byte(result.CSS), 0644); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to write %s: %w", outputPath, err))
			continue
		}
		logStats(log, inputPath, result.Stats)
	}

	if errs != nil {
		log.Warn("Some files failed", zap.Int("failed", len(multierr.Errors(errs))), zap.Int("total", len(files)))
	}
	return errs
}

// findDescriptionFiles finds all YAML and JSON files in a directory
func findDescriptionFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			switch strings.ToLower(filepath.Ext(path)) {
			case ".yaml", ".yml", ".json":
				files = append(files, path)
			}
		}

		return nil
	})

	return files, err
}

func readInput(cmd *cli.Command, src string) ([]byte, error) {
	if src == "" || src == "-" {
		data, err := io.ReadAll(cmd.Root().Reader)
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file %s: %w", src, err)
	}
	return data, nil
}

// writeOutput writes content to a file or stdout
func writeOutput(cmd *cli.Command, content, filename string) error {
	if filename == "" || filename == "-" {
		_, err := io.WriteString(cmd.Root().Writer, content)
		return err
	}

	if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func inputName(src string) string {
	if src == "" || src == "-" {
		return "<stdin>"
	}
	return src
}

func logStats(log *zap.Logger, name string, stats cssbuilder.Stats) {
	log.Debug("Processing statistics",
		zap.String("source", name),
		zap.Int("declarations", stats.Declarations),
		zap.Int("discarded", stats.Discarded),
		zap.Int("blocks", stats.Blocks),
		zap.Int("dropped", stats.NestedDropped),
		zap.Int("depth", stats.MaxDepth))
}
