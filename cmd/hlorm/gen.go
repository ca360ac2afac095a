package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/hlblock/hlorm/cli"
)

var (
	baseFolder string

	genFlags struct {
		table      string
		attributes string
		relations  string
	}

	genCmd = &cobra.Command{
		Use:     "gen <model>",
		Short:   "Generate the definition of a highload block",
		Example: `  hlorm gen Article --table articles --attributes title:string,sort:int,cover:file --relations author:Author:belongs_to`,
		Args:    cobra.ExactArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := cli.ParseFields(genFlags.attributes)
			if err != nil {
				return err
			}
			relations, err := cli.ParseRelations(genFlags.relations)
			if err != nil {
				return err
			}

			g := &cli.Generator{Fs: afero.NewOsFs(), BaseFolder: baseFolder}
			generated, err := g.GenerateDefinition(args[0], genFlags.table, fields, relations)
			if err != nil {
				return err
			}
			successColor.Fprintf(cmd.OutOrStdout(), "created %s\n", generated.File)
			if generated.ImportPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "import %q\n", generated.ImportPath)
			}
			return nil
		},
	}

	initCmd = &cobra.Command{
		Use:   "init [driver]",
		Short: "Write hlorm.yaml for a driver: mysql, postgres, pgx, sqlite3, sqlserver or mongodb",
		Args:  cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			driver := "sqlite3"
			if len(args) > 0 {
				driver = args[0]
			}

			g := &cli.Generator{Fs: afero.NewOsFs(), BaseFolder: baseFolder}
			generated, err := g.GenerateConfig(driver)
			if err != nil {
				return err
			}
			successColor.Fprintf(cmd.OutOrStdout(), "created %s\n", generated.File)
			return nil
		},
	}
)

func init() {
	for _, cmd := range []*cobra.Command{genCmd, initCmd} {
		cmd.Flags().StringVar(&baseFolder, "folder", ".", "Base folder of the project")
	}
	genCmd.Flags().StringVarP(&genFlags.table, "table", "t", "", "Table of the highload block")
	genCmd.Flags().StringVarP(&genFlags.attributes, "attributes", "a", "", "Attributes, eg: title:string,sort:int")
	genCmd.Flags().StringVarP(&genFlags.relations, "relations", "r", "", "Relations, eg: author:Author:belongs_to,tags:Tag:belongs_to_many")
	_ = genCmd.MarkFlagRequired("table")

	rootCmd.AddCommand(genCmd, initCmd)
}
