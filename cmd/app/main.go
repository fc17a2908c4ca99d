package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/charmbracelet/lipgloss"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/echovault/internal"
	"github.com/starford/echovault/internal/orchestrator"
	pkgconfig "github.com/starford/echovault/pkg/config"
)

var version = "dev"

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	labelStyle = lipgloss.NewStyle().Faint(true).Width(16)
)

func loadConfig(cmd *cli.Command) (*internal.Config, string, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadWithDefaults(configPath, "", cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, configPath, nil
}

// build wires the application for one-shot commands. Logs go to stderr so
// stdout carries only command output.
func build(cmd *cli.Command) (*internal.App, error) {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return internal.Build(
		internal.WithConfig(cfg),
		internal.WithLogOutput(os.Stderr),
		internal.WithVersion(version),
	)
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, configPath, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithConfigPath(configPath),
		internal.WithVersion(version),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func syncOnce(ctx context.Context, cmd *cli.Command) error {
	app, err := build(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	res := app.Orchestrator.RunOnce(ctx)
	if cmd.Bool("json") {
		return printJSON(res)
	}
	printResult(res)
	if res.Errors > 0 {
		return fmt.Errorf("sync finished with %d errors", res.Errors)
	}
	return nil
}

func printResult(res orchestrator.Result) {
	row := func(label string, v int) {
		fmt.Printf("%s %d\n", labelStyle.Render(label), v)
	}

	fmt.Println(titleStyle.Render("Sync " + res.RunID))
	row("captures", res.Captures)
	row("duplicates", res.Duplicates)
	row("acknowledged", res.Acknowledged)
	row("todos pushed", res.TodosPushed)
	row("todos created", res.TodosCreated)
	row("todos pulled", res.TodosPulled)

	took := res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond)
	if res.Errors > 0 {
		fmt.Println(errStyle.Render(fmt.Sprintf("finished with %d errors in %s", res.Errors, took)))
		return
	}
	fmt.Println(okStyle.Render("ok in " + took.String()))
}

func pending(ctx context.Context, cmd *cli.Command) error {
	app, err := build(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	p, err := app.Service.Pending(ctx)
	if err != nil {
		return fmt.Errorf("pending: %w", err)
	}
	if cmd.Bool("json") {
		return printJSON(p)
	}
	if p.Count == 0 {
		fmt.Println(okStyle.Render("nothing pending"))
		return nil
	}
	line := fmt.Sprintf("%d captures pending", p.Count)
	if p.Oldest != nil {
		line += ", oldest " + p.Oldest.In(app.Notes.Location()).Format("2006-01-02 15:04")
	}
	fmt.Println(warnStyle.Render(line))
	return nil
}

func note(ctx context.Context, cmd *cli.Command) error {
	app, err := build(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	date, err := app.Service.ParseDate(strings.Join(cmd.Args().Slice(), " "))
	if err != nil {
		return err
	}
	detail, err := app.Service.DailyNote(ctx, date, true)
	if err != nil {
		return err
	}
	if cmd.Bool("print") {
		fmt.Print(detail.Content)
		return nil
	}
	fmt.Println(detail.Path)
	return nil
}

func mcp(_ context.Context, cmd *cli.Command) error {
	app, err := build(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.MCP().ServeStdio()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	jsonFlag := func() cli.Flag {
		return &cli.BoolFlag{Name: "json", Usage: "Print machine-readable JSON"}
	}

	cmd := &cli.Command{
		Name:    "echovault",
		Usage:   "Sync voice captures and todos from a capture server into a Markdown vault",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (.yaml or .toml)",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the scheduler and control API (default)",
				Action: serve,
			},
			{
				Name:   "sync",
				Usage:  "Run one sync pass and print a summary",
				Flags:  []cli.Flag{jsonFlag()},
				Action: syncOnce,
			},
			{
				Name:   "pending",
				Usage:  "Show how many captures wait on the server",
				Flags:  []cli.Flag{jsonFlag()},
				Action: pending,
			},
			{
				Name:      "note",
				Usage:     "Create a daily note if missing and print its path",
				ArgsUsage: "[date: YYYY-MM-DD, today, yesterday, last friday...]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "print", Aliases: []string{"p"}, Usage: "Print the note content instead of its path"},
				},
				Action: note,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: mcp,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
