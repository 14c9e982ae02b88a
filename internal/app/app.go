package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gofrs/flock"

	"qbfrt/internal/config"
	"qbfrt/internal/database"
	"qbfrt/internal/encryption"
	"qbfrt/internal/journal"
	"qbfrt/internal/qbfrt"
	"qbfrt/internal/vault"
)

// QBApp is the application layer between the CLI and qbfrt.Service.
// It constructs all dependencies from config, records runs in the journal
// and owns the torrents database lock for the lifetime of a command.
type QBApp struct {
	cfg       *config.Config
	vault     qbfrt.Vault
	encryptor qbfrt.Encryptor
	journal   *journal.Journal
	logger    qbfrt.Logger
	clock     qbfrt.Clock
	op        *Operation
	logFile   *os.File

	// Set once a command opens torrents.db.
	db   *database.SQLiteDatabase
	lock *flock.Flock
}

// Options configure a QBApp beyond the config file.
type Options struct {
	// Operation names the CLI command, e.g. "edit" or "dump".
	Operation string
	// Parameters is the command line recorded in the journal.
	Parameters string
	// Verbose prints debug records to stderr as well as the log file.
	Verbose bool
	// Stderr receives log output; os.Stderr when nil.
	Stderr io.Writer
	// IDs names the run; random UUIDs when nil.
	IDs qbfrt.IDGenerator
}

// NewQBApp creates a fully wired QBApp from the given config. The torrents
// database is opened later, by the commands that need it. The caller must
// call Close when done.
func NewQBApp(ctx context.Context, cfg *config.Config, opts Options) (*QBApp, error) {
	ids := opts.IDs
	if ids == nil {
		ids = qbfrt.RandomIDs{}
	}
	runID := ids.New()

	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger, logFile, err := newLogger(cfg.LogDir, runID, stderr, level)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	a, err := newQBApp(ctx, cfg, NewOperation(runID, opts.Operation, opts.Parameters), &slogAdapter{l: logger}, qbfrt.SystemClock{})
	if err != nil {
		logFile.Close()
		return nil, err
	}
	a.logFile = logFile
	return a, nil
}

func newQBApp(ctx context.Context, cfg *config.Config, op *Operation, logger qbfrt.Logger, clock qbfrt.Clock) (*QBApp, error) {
	var v qbfrt.Vault
	if cfg.Backup.Enabled {
		var err error
		v, err = vault.NewVaultFromConfig(ctx, cfg.Backup.Vault)
		if err != nil {
			return nil, fmt.Errorf("creating vault: %w", err)
		}
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	j, err := journal.NewJournalFromConfig(cfg.Journal)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	return &QBApp{
		cfg:       cfg,
		vault:     v,
		encryptor: enc,
		journal:   j,
		logger:    logger,
		clock:     clock,
		op:        op,
	}, nil
}

// RunID returns the id under which this command is journaled.
func (a *QBApp) RunID() string {
	return a.op.RunID
}

// Separator returns the configured blob path separator.
func (a *QBApp) Separator() string {
	return a.cfg.Separator
}

// openDatabase opens and locks torrents.db. override is the --db flag.
func (a *QBApp) openDatabase(override string) error {
	if a.db != nil {
		return fmt.Errorf("torrents database already open: %s", a.db.Path())
	}
	if override != "" {
		a.cfg.DatabasePath = override
	}
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	db, err := database.NewDatabaseFromConfig(a.cfg, "")
	if err != nil {
		return fmt.Errorf("opening torrents database: %w", err)
	}
	lock, err := acquireLock(db.Path())
	if err != nil {
		db.Close()
		return err
	}

	a.db = db
	a.lock = lock
	return nil
}

// startRun records the operation in the journal. A QBApp runs one
// operation.
func (a *QBApp) startRun(ctx context.Context) error {
	if a.op.Started() {
		return fmt.Errorf("run %s already recorded", a.op.RunID)
	}
	err := a.journal.StartRun(ctx, &journal.Run{
		RunID:        a.op.RunID,
		Operation:    a.op.Name,
		Parameters:   a.op.Parameters,
		DatabasePath: a.db.Path(),
		StartedAt:    a.clock.Now(),
	})
	if err != nil {
		return err
	}
	a.op.started = true
	return nil
}

// finishRun stores the outcome of the run and returns runErr, or the
// journal error when the run itself succeeded. The outcome is recorded
// even when ctx was cancelled, so an interrupted edit keeps its counts.
func (a *QBApp) finishRun(ctx context.Context, summary qbfrt.Summary, runErr error) error {
	err := a.journal.FinishRun(context.WithoutCancel(ctx), a.op.RunID, a.clock.Now(), summary, runErr)
	if runErr != nil {
		if err != nil {
			a.logger.Warn("could not record run result", "error", err)
		}
		return runErr
	}
	return err
}

// recordFailures wraps report so that failed torrents are also stored in
// the journal.
func (a *QBApp) recordFailures(ctx context.Context, report qbfrt.ReportFunc) qbfrt.ReportFunc {
	ctx = context.WithoutCancel(ctx)
	return func(r qbfrt.RecordReport) {
		if r.Outcome.Failed() {
			f := journal.Failure{TorrentID: r.TorrentID, Outcome: r.Outcome.String()}
			if r.Err != nil {
				f.Message = r.Err.Error()
			}
			if err := a.journal.RecordFailure(ctx, a.op.RunID, f); err != nil {
				a.logger.Warn("could not record failure", "torrent", r.TorrentID, "error", err)
			}
		}
		if report != nil {
			report(r)
		}
	}
}

func (a *QBApp) service() *qbfrt.Service {
	var db qbfrt.Database
	if a.db != nil {
		db = a.db
	}
	return qbfrt.NewService(db, a.vault, a.encryptor, a.logger, a.clock)
}

// EditOptions select the torrents database and the edits of one run.
type EditOptions struct {
	DatabasePath string
	Edits        qbfrt.EditSet
	// NoBackup skips the snapshot taken before editing.
	NoBackup bool
}

// Edit backs up torrents.db and applies opts.Edits to every torrent. A
// failed backup aborts the run before anything is written.
func (a *QBApp) Edit(ctx context.Context, opts EditOptions, report qbfrt.ReportFunc) (qbfrt.Summary, error) {
	if opts.Edits.Empty() {
		return qbfrt.Summary{}, fmt.Errorf("nothing to do: give a save path or tracker edit")
	}
	if err := opts.Edits.Validate(); err != nil {
		return qbfrt.Summary{}, err
	}

	if err := a.openDatabase(opts.DatabasePath); err != nil {
		return qbfrt.Summary{}, err
	}
	if err := a.startRun(ctx); err != nil {
		return qbfrt.Summary{}, err
	}

	svc := a.service()
	switch {
	case opts.NoBackup:
		a.logger.Warn("backup skipped on request")
	case a.vault == nil:
		a.logger.Info("backups disabled in config")
	default:
		name, err := svc.BackupDatabase(ctx, a.op.RunID)
		if err != nil {
			return qbfrt.Summary{}, a.finishRun(ctx, qbfrt.Summary{}, fmt.Errorf("backup failed, nothing changed: %w", err))
		}
		if err := a.journal.SetBackup(ctx, a.op.RunID, name); err != nil {
			a.logger.Warn("could not record backup name", "backup", name, "error", err)
		}
	}

	summary, err := svc.ApplyEdits(ctx, opts.Edits, a.recordFailures(ctx, report))
	return summary, a.finishRun(ctx, summary, err)
}

// Dump writes a .fastresume and .torrent file per torrent into outDir, or
// the configured dump directory when outDir is empty. It returns the
// directory written to.
func (a *QBApp) Dump(ctx context.Context, databasePath, outDir string, report qbfrt.ReportFunc) (qbfrt.Summary, string, error) {
	if outDir == "" {
		outDir = a.cfg.DumpDir
	}
	sink, err := qbfrt.NewDirSink(outDir)
	if err != nil {
		return qbfrt.Summary{}, "", err
	}

	if err := a.openDatabase(databasePath); err != nil {
		return qbfrt.Summary{}, "", err
	}
	if err := a.startRun(ctx); err != nil {
		return qbfrt.Summary{}, "", err
	}

	summary, err := a.service().Dump(ctx, sink, a.recordFailures(ctx, report))
	return summary, sink.Dir(), a.finishRun(ctx, summary, err)
}

// History returns the most recent runs, newest first.
func (a *QBApp) History(ctx context.Context, limit int) ([]*journal.Run, error) {
	return a.journal.ListRuns(ctx, limit)
}

// Failures returns the torrents that failed in a run.
func (a *QBApp) Failures(ctx context.Context, runID string) ([]journal.Failure, error) {
	return a.journal.Failures(ctx, runID)
}

// ListBackups returns the backups stored in the vault.
func (a *QBApp) ListBackups(ctx context.Context) ([]qbfrt.BackupObject, error) {
	return a.service().ListBackups(ctx)
}

// BackupEncrypted reports whether restoring name needs the passphrase.
func (a *QBApp) BackupEncrypted(name string) bool {
	suffix := a.encryptor.Suffix()
	return suffix != "" && strings.HasSuffix(name, suffix)
}

// RestoreBackup downloads a backup to destPath, which must not exist.
func (a *QBApp) RestoreBackup(ctx context.Context, name, passphrase, destPath string) error {
	return a.service().RestoreBackup(ctx, name, passphrase, destPath)
}

// SetupKeys generates the backup key pair, protecting the private key
// with passphrase. Existing keys are never replaced.
func (a *QBApp) SetupKeys(passphrase string) error {
	return a.encryptor.Setup(passphrase)
}

// ValidateVault checks that the backup vault is reachable and writable.
func (a *QBApp) ValidateVault(ctx context.Context) error {
	if a.vault == nil {
		return qbfrt.ErrBackupsDisabled
	}
	return a.vault.ValidateSetup(ctx)
}

// Close releases the database lock and closes all resources.
func (a *QBApp) Close() error {
	var errs []error

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing database: %w", err))
		}
	}
	if a.lock != nil {
		if err := a.lock.Unlock(); err != nil {
			errs = append(errs, fmt.Errorf("releasing lock: %w", err))
		}
	}
	if err := a.journal.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing journal: %w", err))
	}
	if a.logFile != nil {
		a.logFile.Close()
	}

	return errors.Join(errs...)
}
