package service

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"yatube/app/logging"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const cliVersion = "1.0.0"

// NewRootCommand builds the yatube command tree.
func NewRootCommand() *cobra.Command {
	var dbPath string

	root := &cobra.Command{
		Use:           "yatube",
		Short:         "Yatube blogging service",
		Version:       cliVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "", "database directory (overrides DB_PATH)")

	root.AddCommand(
		newServeCommand(&dbPath),
		newInitCommand(&dbPath),
		newCleanCommand(&dbPath),
		newBackupCommand(&dbPath),
		newRestoreCommand(&dbPath),
		newGroupCommand(&dbPath),
		newUserCommand(&dbPath),
		newPostCommand(&dbPath),
		newCommentCommand(&dbPath),
	)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute(args []string) int {
	root := NewRootCommand()
	root.SetArgs(args)
	err := root.Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
		return 1
	}
	return 0
}

func newInitCommand(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new empty database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*dbPath)
			if err != nil {
				return err
			}
			if dbExists(cfg.DBPath) {
				fmt.Fprintln(cmd.OutOrStdout(), "Database already exists. Use 'clean' first if you want to reinitialize.")
				return nil
			}
			repo, err := openRepository(cfg)
			if err != nil {
				return errors.Wrap(err, "initializing database")
			}
			if err := repo.Close(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database initialized successfully")
			return nil
		},
	}
}

func newCleanCommand(dbPath *string) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*dbPath)
			if err != nil {
				return err
			}
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				fmt.Fprintln(cmd.OutOrStdout(), "Database is already clean (does not exist)")
				return nil
			}
			if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Are you sure you want to clean the database? This cannot be undone.") {
				fmt.Fprintln(cmd.OutOrStdout(), "Operation cancelled")
				return nil
			}
			if err := os.RemoveAll(cfg.DBPath); err != nil {
				return errors.Wrap(err, "cleaning database")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database cleaned successfully")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newBackupCommand(dbPath *string) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a full backup of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*dbPath)
			if err != nil {
				return err
			}
			if !dbExists(cfg.DBPath) {
				fmt.Fprintln(cmd.OutOrStdout(), "No database exists to backup")
				return nil
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return errors.Wrap(err, "creating backup directory")
			}

			repo, err := openRepository(cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			backupFile := filepath.Join(dir, fmt.Sprintf("backup_%d.db", time.Now().Unix()))
			f, err := os.Create(backupFile)
			if err != nil {
				return errors.Wrap(err, "creating backup file")
			}
			defer f.Close()

			if _, err := repo.Backup(f); err != nil {
				return errors.Wrap(err, "backing up database")
			}
			size := "unknown size"
			if fi, err := f.Stat(); err == nil {
				size = humanize.Bytes(uint64(fi.Size()))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database backed up successfully to %s (%s)\n", backupFile, size)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "data/backups", "directory to write the backup to")
	return cmd
}

func newRestoreCommand(dbPath *string) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace the database with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backupFile := args[0]
			fi, err := os.Stat(backupFile)
			if os.IsNotExist(err) {
				return errors.Errorf("backup file does not exist: %s", backupFile)
			}
			if err != nil {
				return err
			}
			if fi.Size() == 0 {
				return errors.Errorf("backup file is empty: %s", backupFile)
			}

			cfg, err := loadConfig(*dbPath)
			if err != nil {
				return err
			}
			if dbExists(cfg.DBPath) {
				if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Existing database found. Do you want to replace it?") {
					fmt.Fprintln(cmd.OutOrStdout(), "Operation cancelled")
					return nil
				}
				if err := os.RemoveAll(cfg.DBPath); err != nil {
					return errors.Wrap(err, "removing existing database")
				}
			}

			repo, err := openRepository(cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			f, err := os.Open(backupFile)
			if err != nil {
				return errors.Wrap(err, "opening backup file")
			}
			defer f.Close()

			if err := repo.Load(f); err != nil {
				return errors.Wrap(err, "restoring database")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database restored successfully")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "replace an existing database without asking")
	return cmd
}
