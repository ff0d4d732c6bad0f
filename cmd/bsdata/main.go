package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bsdata-go/internal/app"
	"bsdata-go/internal/config"
	"bsdata-go/internal/datafile"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a BSDataApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Build", "History").
func newApp(ctx context.Context, operation, parameters string, opts app.Options) (*app.BSDataApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewBSDataApp(ctx, cfg, operation, parameters, opts)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:          "bsdata",
	Short:        "BattleScribe data repository tool",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		instanceID := uuid.New().String()
		cfg := defaults.NewConfig(instanceID)

		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Instance ID: %s\n", instanceID)
		fmt.Printf("Base Dir:    %s\n", defaults.BaseDir)
		fmt.Printf("Cache TTL:   %s\n", defaults.CacheTTL)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults.ConfigPath)
		fmt.Printf("Instance ID: %s\n", cfg.InstanceID)
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Database:    %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		if cfg.Repository.BaseURL != "" {
			fmt.Printf("Base URL:    %s\n", cfg.Repository.BaseURL)
		}
		for _, v := range cfg.Vaults {
			fmt.Printf("Vault:       %s (%s)\n", v.Name, v.Type)
		}
		return nil
	},
}

// build command
var buildCmd = &cobra.Command{
	Use:   "build SOURCE",
	Short: "Build a compressed repository from a directory or release zip",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		baseURL, _ := cmd.Flags().GetString("base-url")
		repoURLs, _ := cmd.Flags().GetStringSlice("repo-url")
		out, _ := cmd.Flags().GetString("out")
		publish, _ := cmd.Flags().GetBool("publish")
		verbose, _ := cmd.Flags().GetBool("verbose")

		source, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}

		a, err := newApp(cmd.Context(), "Build", source, app.Options{
			Verbose:        verbose,
			BaseURL:        baseURL,
			RepositoryURLs: repoURLs,
		})
		if err != nil {
			return err
		}
		defer a.Close()

		snap, err := a.Build(cmd.Context(), source, name)
		if err != nil {
			return fmt.Errorf("build failed: %w", err)
		}

		fmt.Printf("Built %s: %d file(s), %d failure(s)\n", snap.Repository, len(snap.Files), len(snap.Failures))
		for _, f := range snap.Failures {
			fmt.Printf("  skipped %s: %v\n", f.Name, f.Err)
		}

		if out != "" {
			n, err := a.Export(snap, out)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			fmt.Printf("Wrote %d file(s) to %s\n", n, filepath.Join(out, snap.Repository))
		}

		if publish {
			n, err := a.Publish(snap)
			if err != nil {
				return fmt.Errorf("publish failed: %w", err)
			}
			fmt.Printf("Published %d file(s)\n", n)
		}
		return nil
	},
}

// inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Show the metadata of a data or index file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := app.InspectFile(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("File:       %s\n", info.Path)
		fmt.Printf("Kind:       %s\n", info.Kind)
		fmt.Printf("Compressed: %t\n", info.Compressed)
		fmt.Printf("Size:       %d\n", info.Size)
		fmt.Printf("Version:    %s\n", info.Version)

		if info.Index != nil {
			fmt.Printf("Name:       %s\n", info.Index.Name)
			if info.Index.IndexURL != "" {
				fmt.Printf("Index URL:  %s\n", info.Index.IndexURL)
			}
			for _, e := range info.Index.Entries {
				fmt.Printf("  %-40s  %-10s  r%-4d  %s\n", e.FilePath, e.DataType, e.DataRevision, e.DataName)
			}
			return nil
		}

		fmt.Printf("ID:         %s\n", info.Data.DataID())
		fmt.Printf("Name:       %s\n", info.Data.DataName())
		if info.Data.Kind() != datafile.KindRoster {
			fmt.Printf("Revision:   %d\n", info.Data.DataRevision())
		}
		switch {
		case info.Unsupported != nil:
			fmt.Printf("Upgrade:    %v\n", info.Unsupported)
		case info.NeedsUpgrade:
			fmt.Println("Upgrade:    required")
		default:
			fmt.Println("Upgrade:    up to date")
		}
		return nil
	},
}

// upgrade command
var upgradeCmd = &cobra.Command{
	Use:   "upgrade FILE",
	Short: "Upgrade a data file to the current schema version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		showDiff, _ := cmd.Flags().GetBool("diff")
		out, _ := cmd.Flags().GetString("output")

		f, err := app.UpgradeFile(args[0])
		if err != nil {
			return err
		}

		if !f.Result.Changed() {
			fmt.Printf("%s is already at version %s\n", args[0], f.Result.Version)
			return nil
		}

		if showDiff {
			diff, err := f.Diff()
			if err != nil {
				return err
			}
			fmt.Print(diff)
			return nil
		}

		if err := f.Write(out); err != nil {
			return err
		}
		if out == "" {
			out = args[0]
		}
		fmt.Printf("Upgraded %s from %s to %s (%s)\n", out, f.Result.FromVersion, f.Result.Version,
			strings.Join(f.Result.Applied, ", "))
		return nil
	},
}

// unpack command
var unpackCmd = &cobra.Command{
	Use:   "unpack FILE",
	Short: "Extract the document inside a compressed data file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")

		if out == "" && term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("refusing to write XML to a terminal, use -o or redirect stdout")
		}

		entry, err := app.UnpackFile(args[0])
		if err != nil {
			return err
		}

		if out == "" {
			_, err := os.Stdout.Write(entry.Data)
			return err
		}
		if err := os.WriteFile(out, entry.Data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		fmt.Fprintf(os.Stderr, "Unpacked %s to %s\n", entry.Name, out)
		return nil
	},
}

// published command
var publishedCmd = &cobra.Command{
	Use:   "published REPOSITORY [FILE]",
	Short: "Read a published index or file back from the vault",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")

		a, err := newApp(cmd.Context(), "ReadPublished", strings.Join(args, " "), app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 1 {
			idx, err := a.PublishedIndex(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s (%d entries)\n", idx.Name, len(idx.Entries))
			if idx.IndexURL != "" {
				fmt.Printf("Index URL: %s\n", idx.IndexURL)
			}
			for _, e := range idx.Entries {
				fmt.Printf("  %-40s  %-10s  r%-4d  %-6s  %s\n",
					e.FilePath, e.DataType, e.DataRevision, e.DataBattleScribeVersion, e.DataName)
			}
			return nil
		}

		if out == "" && term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("refusing to write a zip to a terminal, use -o or redirect stdout")
		}
		data, err := a.PublishedFile(args[0], args[1])
		if err != nil {
			return err
		}
		if out == "" {
			_, err := os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(out, data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s/%s to %s\n", args[0], args[1], out)
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history [RUN_ID]",
	Short: "View index run history",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		repository, _ := cmd.Flags().GetString("repo")

		a, err := newApp(cmd.Context(), "GetHistory", strings.Join(args, " "), app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		if repository != "" && len(args) == 0 {
			run, err := a.LatestRun(repository)
			if err != nil {
				return err
			}
			if run == nil {
				fmt.Printf("No successful runs of %s.\n", repository)
				return nil
			}
			fmt.Printf("Latest run of %s: #%d at %s from %s\n",
				repository, run.ID, run.StartedAt.Format("2006-01-02 15:04:05"), run.Source)
			args = []string{fmt.Sprint(run.ID)}
		}

		if len(args) == 1 {
			var runID int64
			if _, err := fmt.Sscan(args[0], &runID); err != nil {
				return fmt.Errorf("invalid run id %q", args[0])
			}
			files, err := a.GetRunFiles(runID)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Println("No files recorded for this run.")
				return nil
			}
			for _, f := range files {
				fmt.Printf("%s  %-10s  %8d  %-6s  %s\n",
					f.Checksum[:12],
					f.DataType,
					f.Size,
					f.DataVersion,
					f.FilePath,
				)
			}
			return nil
		}

		runs, err := a.GetHistory(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No index runs recorded.")
			return nil
		}

		for _, run := range runs {
			duration := ""
			if run.FinishedAt.Valid {
				d := run.FinishedAt.Time.Sub(run.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-20s  %s  %-10s  %3d files  %3d failed  %s\n",
				run.ID,
				run.Repository,
				run.StartedAt.Format("2006-01-02 15:04:05"),
				run.Status,
				run.FileCount,
				run.FailureCount,
				duration,
			)
		}
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().String("name", "", "Repository name (defaults to the configured name or the source name)")
	buildCmd.Flags().String("base-url", "", "URL the repository is served under")
	buildCmd.Flags().StringSlice("repo-url", nil, "Related repository index URL (repeatable)")
	buildCmd.Flags().String("out", "", "Write the built repository to this directory")
	buildCmd.Flags().Bool("publish", false, "Publish the built repository to the configured vault")
	buildCmd.Flags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(upgradeCmd)
	upgradeCmd.Flags().Bool("diff", false, "Print the changes instead of writing them")
	upgradeCmd.Flags().StringP("output", "o", "", "Write the upgraded file here instead of in place")
	rootCmd.AddCommand(unpackCmd)
	unpackCmd.Flags().StringP("output", "o", "", "Write the document to this file")
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of runs to show")
	historyCmd.Flags().String("repo", "", "Show the files of the latest successful run of this repository")
	rootCmd.AddCommand(publishedCmd)
	publishedCmd.Flags().StringP("output", "o", "", "Write the file here instead of stdout")
}
