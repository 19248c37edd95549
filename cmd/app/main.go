package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/sideload/internal"
	"github.com/starford/sideload/internal/auth"
	"github.com/starford/sideload/internal/cliui"
	pkgconfig "github.com/starford/sideload/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// stderrLogger keeps stdout free for tables and the MCP protocol.
func stderrLogger(cfg *internal.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func openCore(cmd *cli.Command) (*internal.Core, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return internal.Open(internal.WithConfig(cfg), internal.WithLogger(stderrLogger(cfg)))
}

func browse(ctx context.Context, cmd *cli.Command) error {
	core, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	dir := cmd.Args().First()
	if dir != "" {
		if dir, err = filepath.Abs(dir); err != nil {
			return err
		}
	}
	res, err := core.Service.Browse(ctx, dir)
	if err != nil {
		return err
	}
	cliui.PrintBrowse(os.Stdout, res)
	return nil
}

func importFiles(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("no files selected")
	}
	for i, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		paths[i] = abs
	}

	core, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	sum := core.Service.Import(ctx, paths)
	cliui.PrintSummary(os.Stdout, sum)
	if sum.Failed > 0 {
		return fmt.Errorf("%d of %d files failed to import", sum.Failed, len(paths))
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx,
		internal.WithConfig(cfg),
		internal.WithLogger(stderrLogger(cfg)),
		internal.WithVersion(version))
}

func issueToken(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is not configured")
	}
	caps := []string{auth.CapUploadFiles}
	if cmd.Bool("manage") {
		caps = append(caps, auth.CapManageOptions)
	}
	tok, err := auth.Issue([]byte(cfg.Auth.JWTSecret), cmd.String("subject"), caps, cmd.Duration("ttl"))
	if err != nil {
		return err
	}
	_, err = io.WriteString(os.Stdout, tok+"\n")
	return err
}

func main() {
	cmd := &cli.Command{
		Name:   "sideload",
		Usage:  "Import files already on the server into the media library",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server (default)",
				Action: run,
			},
			{
				Name:      "browse",
				Usage:     "List a directory beneath the import root",
				ArgsUsage: "[PATH]",
				Action:    browse,
			},
			{
				Name:      "import",
				Usage:     "Import files into the media library",
				ArgsUsage: "PATH...",
				Action:    importFiles,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: serveMCP,
			},
			{
				Name:  "token",
				Usage: "Issue a JWT carrying the upload_files capability",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "subject",
						Usage:    "Token subject (user name)",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "manage",
						Usage: "Also grant manage_options (saving settings)",
					},
					&cli.DurationFlag{
						Name:  "ttl",
						Usage: "Token lifetime",
						Value: 24 * time.Hour,
					},
				},
				Action: issueToken,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
