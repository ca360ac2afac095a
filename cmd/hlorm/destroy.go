package main

import (
	"context"
	"os"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

// parseIDs numeric ids become int64, others such as mongodb object ids stay strings
func parseIDs(args []string) []interface{} {
	ids := make([]interface{}, len(args))
	for idx, arg := range args {
		if id, err := cast.ToInt64E(arg); err == nil {
			ids[idx] = id
		} else {
			ids[idx] = arg
		}
	}
	return ids
}

var destroyCmd = &cobra.Command{
	Use:   "destroy <table> <id>...",
	Short: "Delete rows by primary key",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			count, err := s.db.Destroy(ctx, definition(args[0]), parseIDs(args[1:])...)
			if err != nil {
				return err
			}
			successColor.Fprintf(cmd.OutOrStdout(), "deleted %d of %d\n", count, len(args)-1)
			return nil
		})
	},
}

var (
	uploadSubdir string

	uploadCmd = &cobra.Command{
		Use:   "upload <path>",
		Short: "Save a file with the file loader and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); err != nil {
				return err
			}
			return withSession(cmd, func(ctx context.Context, s *session) error {
				id, err := s.files.SaveFile(ctx, args[0], uploadSubdir)
				if err != nil {
					return err
				}
				successColor.Fprintf(cmd.OutOrStdout(), "%v\n", id)
				return nil
			})
		},
	}
)

func init() {
	uploadCmd.Flags().StringVar(&uploadSubdir, "subdir", "", "Folder under the files root")
	rootCmd.AddCommand(destroyCmd, uploadCmd)
}
