package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/termfx/markovgo/internal/catalog"
	"github.com/termfx/markovgo/internal/config"
)

func newCatalogCmd() *cobra.Command {
	var dsn string
	var pureGo bool

	root := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the named-program catalog",
	}
	root.PersistentFlags().StringVar(&dsn, "catalog", "markovgo.db", "Catalog database DSN.")
	root.PersistentFlags().BoolVar(&pureGo, "pure-sqlite", false, "Use the pure-Go SQLite driver instead of the cgo one.")

	var name string
	addCmd := &cobra.Command{
		Use:   "add <program.xml|glob>...",
		Short: "Add or update catalog entries from program files, expanding doublestar globs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := config.ExpandGlobs(args)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("catalog add: no files matched %v", args)
			}
			if name != "" && len(paths) != 1 {
				return fmt.Errorf("catalog add: --name requires exactly one matched file, got %d", len(paths))
			}

			db, err := catalog.Connect(catalog.Options{DSN: dsn, PureGo: pureGo})
			if err != nil {
				return err
			}
			desc, _ := cmd.Flags().GetString("description")

			for _, path := range paths {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				xml, err := io.ReadAll(f)
				f.Close()
				if err != nil {
					return err
				}

				entryName := name
				if entryName == "" {
					base := filepath.Base(path)
					entryName = strings.TrimSuffix(base, filepath.Ext(base))
				}
				if err := catalog.Put(db, &catalog.Entry{Name: entryName, Description: desc, XML: string(xml)}); err != nil {
					return err
				}
				fmt.Printf("added %s (%s)\n", entryName, path)
			}
			return nil
		},
	}
	addCmd.Flags().String("description", "", "Human-readable description.")
	addCmd.Flags().StringVar(&name, "name", "", "Override the catalog entry name; only valid with a single matched file.")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := catalog.Connect(catalog.Options{DSN: dsn, PureGo: pureGo})
			if err != nil {
				return err
			}
			entries, err := catalog.List(db)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Printf("%-20s %s\n", e.Name, e.Description)
			}
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Print a catalog entry's program XML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := catalog.Connect(catalog.Options{DSN: dsn, PureGo: pureGo})
			if err != nil {
				return err
			}
			e, err := catalog.Get(db, args[0])
			if err != nil {
				return err
			}
			fmt.Println(e.XML)
			return nil
		},
	}

	root.AddCommand(addCmd, listCmd, showCmd)
	return root
}
