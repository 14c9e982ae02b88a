package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"qbfrt/internal/app"
	"qbfrt/internal/config"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// configPath returns --config, or the default location.
func configPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return p, nil
	}
	defaults, err := app.GetDefaults()
	if err != nil {
		return "", fmt.Errorf("getting defaults: %w", err)
	}
	return defaults.ConfigPath, nil
}

// newApp reads the config and creates a QBApp. The caller must defer
// a.Close(). operation names the command in the run journal.
func newApp(cmd *cobra.Command, operation string) (*app.QBApp, error) {
	path, err := configPath(cmd)
	if err != nil {
		return nil, err
	}
	cfg, err := config.ReadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config (run 'qbfrt config init' first?): %w", err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	a, err := app.NewQBApp(cmd.Context(), cfg, app.Options{
		Operation:  operation,
		Parameters: describeFlags(cmd.Flags()),
		Verbose:    verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// describeFlags renders the flags set on the command line for the journal.
func describeFlags(flags *pflag.FlagSet) string {
	var parts []string
	flags.Visit(func(f *pflag.Flag) {
		if f.Value.Type() == "bool" {
			parts = append(parts, "--"+f.Name)
			return
		}
		parts = append(parts, fmt.Sprintf("--%s=%q", f.Name, f.Value.String()))
	})
	return strings.Join(parts, " ")
}

var rootCmd = &cobra.Command{
	Use:          "qbfrt",
	Short:        "Bulk-edit qBittorrent's torrents.db",
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
		path, err := configPath(cmd)
		if err != nil {
			return err
		}

		dbPath, _ := cmd.Flags().GetString("db")
		if dbPath == "" {
			dbPath = defaults.DatabasePath
		}

		instanceID := uuid.New().String()
		cfg := config.NewConfig(instanceID, defaults.BaseDir, dbPath)

		if err := config.Init(path, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", path)
		fmt.Printf("Instance ID:   %s\n", instanceID)
		fmt.Printf("Base Dir:      %s\n", cfg.BaseDir)
		fmt.Printf("Database Path: %s\n", cfg.DatabasePath)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath(cmd)
		if err != nil {
			return err
		}
		cfg, err := config.ReadFromFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", path)
		fmt.Printf("Instance ID:   %s\n", cfg.InstanceID)
		fmt.Printf("Base Dir:      %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:       %s\n", cfg.LogDir)
		fmt.Printf("Database Path: %s\n", cfg.DatabasePath)
		fmt.Printf("Separator:     %s\n", cfg.Separator)
		fmt.Printf("Dump Dir:      %s\n", cfg.DumpDir)
		fmt.Printf("Journal:       %s\n", cfg.Journal.Type)
		if cfg.Backup.Enabled {
			fmt.Printf("Backups:       %s vault %q\n", cfg.Backup.Vault.Type, cfg.Backup.Vault.Name)
		} else {
			fmt.Printf("Backups:       disabled\n")
		}
		fmt.Printf("Encryption:    %s\n", cfg.Encryption.Type)
		return nil
	},
}

// edit command
var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Replace a save path and/or tracker URL in every torrent",
	Long: `Replace a save path prefix and/or a tracker URL substring in every torrent
of torrents.db. qBittorrent must not be running.

--old-path/--new-path are matched against the forward-slash form kept in the
target_save_path column. --old-path-platform/--new-path-platform give the
same paths as written in the resume data (e.g. C:\Data) and default to the
forward-slash values.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := readEditFlags(cmd)

		a, err := newApp(cmd, "edit")
		if err != nil {
			return err
		}
		defer a.Close()

		edits, err := buildEditSet(f, a.Separator())
		if err != nil {
			return err
		}

		summary, err := a.Edit(cmd.Context(), app.EditOptions{
			DatabasePath: f.db,
			Edits:        edits,
			NoBackup:     f.noBackup,
		}, nil)
		if err != nil {
			return err
		}

		fmt.Printf("Updated %d torrent(s), %d unchanged, %d failed\n",
			summary.Updated, summary.Unchanged, summary.Failed)
		if summary.Failed > 0 {
			fmt.Printf("See 'qbfrt history --run %s' for the failures\n", a.RunID())
		}
		return nil
	},
}

// dump command
var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Write a .fastresume/.torrent pair for every torrent",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _ := cmd.Flags().GetString("db")
		out, _ := cmd.Flags().GetString("output")

		a, err := newApp(cmd, "dump")
		if err != nil {
			return err
		}
		defer a.Close()

		summary, dir, err := a.Dump(cmd.Context(), db, out, nil)
		if err != nil {
			return err
		}

		fmt.Printf("Wrote %d torrent(s) to %s, %d failed\n", summary.Dumped, dir, summary.Failed)
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View past runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		runID, _ := cmd.Flags().GetString("run")

		a, err := newApp(cmd, "history")
		if err != nil {
			return err
		}
		defer a.Close()

		if runID != "" {
			failures, err := a.Failures(cmd.Context(), runID)
			if err != nil {
				return err
			}
			printFailures(os.Stdout, failures)
			return nil
		}

		runs, err := a.History(cmd.Context(), limit)
		if err != nil {
			return err
		}
		printRuns(os.Stdout, runs)
		return nil
	},
}

// backups command
var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "Manage torrents.db backups",
}

var backupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored backups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "backups-list")
		if err != nil {
			return err
		}
		defer a.Close()

		objs, err := a.ListBackups(cmd.Context())
		if err != nil {
			return err
		}
		printBackups(os.Stdout, objs)
		return nil
	},
}

var backupsRestoreCmd = &cobra.Command{
	Use:   "restore NAME",
	Short: "Restore a backup to a new file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dest, _ := cmd.Flags().GetString("to")

		a, err := newApp(cmd, "backups-restore")
		if err != nil {
			return err
		}
		defer a.Close()

		var passphrase string
		if a.BackupEncrypted(args[0]) {
			passphrase, err = readPassphrase("Passphrase: ", false)
			if err != nil {
				return err
			}
		}

		if err := a.RestoreBackup(cmd.Context(), args[0], passphrase, dest); err != nil {
			return err
		}
		fmt.Printf("Restored %s to %s\n", args[0], dest)
		return nil
	},
}

var backupsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the backup vault is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "backups-check")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ValidateVault(cmd.Context()); err != nil {
			return fmt.Errorf("vault check failed: %w", err)
		}
		fmt.Println("Vault OK")
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage backup encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the backup key pair",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "keys-init")
		if err != nil {
			return err
		}
		defer a.Close()

		passphrase, err := readPassphrase("New passphrase: ", true)
		if err != nil {
			return err
		}
		if err := a.SetupKeys(passphrase); err != nil {
			return err
		}
		fmt.Println("Key pair created. Keep the passphrase safe: backups cannot be restored without it.")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default $QBFRT_CONFIG_PATH or ~/.config/qbfrt.toml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Print debug output")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configInitCmd.Flags().String("db", "", "Path to torrents.db (default: qBittorrent's data directory)")

	// edit
	addEditFlags(editCmd)

	// dump
	dumpCmd.Flags().String("db", "", "Path to torrents.db (overrides config)")
	dumpCmd.Flags().StringP("output", "o", "", "Output directory (default: dump_dir from config)")

	// history
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to show")
	historyCmd.Flags().String("run", "", "Show the failed torrents of one run")

	// backups subcommands
	backupsCmd.AddCommand(backupsListCmd)
	backupsCmd.AddCommand(backupsRestoreCmd)
	backupsCmd.AddCommand(backupsCheckCmd)
	backupsRestoreCmd.Flags().String("to", "", "Path to write the restored database to (must not exist)")
	backupsRestoreCmd.MarkFlagRequired("to")

	// keys subcommands
	keysCmd.AddCommand(keysInitCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(backupsCmd)
	rootCmd.AddCommand(keysCmd)
}
