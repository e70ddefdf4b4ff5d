package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ayusman/pianogames/internal/catalog"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Composer catalog and MIDI library",
	}
	catalogCmd.AddCommand(newCatalogBuildCommand(ctx))
	catalogCmd.AddCommand(newCatalogComposersCommand(ctx))
	catalogCmd.AddCommand(newCatalogFilesCommand(ctx))
	return catalogCmd
}

func newCatalogBuildCommand(ctx *commandContext) *cobra.Command {
	var maestro string
	var jsonPath string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Load the MAESTRO metadata table into the composer catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if maestro == "" {
				maestro = cfg.Paths.MaestroCSV
			}
			if maestro == "" {
				return errors.New("no MAESTRO table: pass --maestro or set paths.maestro_csv")
			}

			composers, err := catalog.LoadMaestro(maestro, ctx.log())
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			if err := st.Composers().ReplaceAll(composers); err != nil {
				return fmt.Errorf("store catalog: %w", err)
			}

			if jsonPath != "" {
				f, err := os.Create(jsonPath)
				if err != nil {
					return fmt.Errorf("create %s: %w", jsonPath, err)
				}
				if err := catalog.WriteJSON(f, composers); err != nil {
					f.Close()
					return fmt.Errorf("write %s: %w", jsonPath, err)
				}
				if err := f.Close(); err != nil {
					return fmt.Errorf("close %s: %w", jsonPath, err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Catalog built: %d composers, %d pieces\n",
				len(composers), catalog.TotalPieces(composers))
			return nil
		},
	}
	cmd.Flags().StringVar(&maestro, "maestro", "", "MAESTRO metadata CSV (defaults to paths.maestro_csv)")
	cmd.Flags().StringVar(&jsonPath, "json", "", "Also write the catalog as JSON to this file")
	return cmd
}

func newCatalogComposersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "composers",
		Short: "List the composers in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			composers, err := st.Composers().List()
			if err != nil {
				return fmt.Errorf("list composers: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(composers) == 0 {
				fmt.Fprintln(out, "The catalog is empty; run `pianogames catalog build` first")
				return nil
			}
			rows := make([][]string, len(composers))
			for i, c := range composers {
				rows[i] = []string{c.Name, strconv.Itoa(c.PieceCount)}
			}
			fmt.Fprintln(out, renderTable([]string{"Composer", "Pieces"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}

func newCatalogFilesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "files [KEY]",
		Short: "List the MIDI files of the mimipiano library",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			lib := catalog.Library{Root: cfg.Paths.MusicRoot}
			files, err := lib.Files()
			if err != nil {
				return err
			}

			keys := make([]string, 0, len(files))
			for k := range files {
				if len(args) == 0 || strings.EqualFold(args[0], k) {
					keys = append(keys, k)
				}
			}
			sort.Strings(keys)

			var rows [][]string
			for _, k := range keys {
				for _, f := range files[k] {
					rows = append(rows, []string{k, f})
				}
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintf(out, "No MIDI files under %s\n", lib.Root)
				return nil
			}
			fmt.Fprintln(out, renderTable([]string{"Key", "File"}, rows, nil))
			return nil
		},
	}
}
