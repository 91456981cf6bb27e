package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"oltmap/internal/container"
	"oltmap/internal/errors"
	"oltmap/internal/ingestion"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import inventory spreadsheets (.xlsx or .csv)",
	}
	cmd.AddCommand(
		newImportPortsCmd(),
		newImportOltPortsCmd(),
		newImportMappingsCmd(),
	)
	return cmd
}

// runImport parses the file and hands the dataset to fn, printing the resulting report
func runImport(cmd *cobra.Command, path string, fn func(ctx context.Context, c *container.Container, ds *ingestion.Dataset) (*ingestion.Report, error)) error {
	ctx := cmd.Context()
	c, err := setup(ctx)
	if err != nil {
		return err
	}
	defer c.Shutdown(ctx)

	f, err := os.Open(path)
	if err != nil {
		return errors.WithCode(errors.CodeMissingFile, errors.Wrapf(err, "cannot open %s", path))
	}
	defer f.Close()

	ds, err := c.Reader.Parse(ctx, filepath.Base(path), f)
	if err != nil {
		return err
	}
	report, err := fn(ctx, c, ds)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), report)
}

func newImportPortsCmd() *cobra.Command {
	var oltID int64
	var appendMode bool

	cmd := &cobra.Command{
		Use:   "ports FILE",
		Short: "Load slot/portNumber/label rows into one OLT",
		Long: `Load a port sheet (columns slot, portNumber, label) into an existing OLT.
The OLT's ports and their mappings are replaced unless --append is given.

Example: oltctl import ports --olt 1 puertos.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], func(ctx context.Context, c *container.Container, ds *ingestion.Dataset) (*ingestion.Report, error) {
				return c.Ingestion.ImportPorts(ctx, oltID, ds, !appendMode)
			})
		},
	}

	cmd.Flags().Int64Var(&oltID, "olt", 0, "Target OLT id")
	cmd.Flags().BoolVar(&appendMode, "append", false, "Keep existing ports instead of replacing them")
	_ = cmd.MarkFlagRequired("olt")
	return cmd
}

func newImportOltPortsCmd() *cobra.Command {
	var appendMode bool

	cmd := &cobra.Command{
		Use:   "olt-ports FILE",
		Short: "Load port rows that name their own OLT",
		Long: `Load a port sheet with columns OLT, OLT_NAME, slot, portNumber, label.
OLTs that do not exist yet are created with the given id and name.

Example: oltctl import olt-ports --append puertos_olts.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], func(ctx context.Context, c *container.Container, ds *ingestion.Dataset) (*ingestion.Report, error) {
				return c.Ingestion.ImportOltPorts(ctx, ds, !appendMode)
			})
		},
	}

	cmd.Flags().BoolVar(&appendMode, "append", false, "Keep existing ports instead of replacing them")
	return cmd
}

func newImportMappingsCmd() *cobra.Command {
	var replace bool
	var scope string
	var olts []string

	cmd := &cobra.Command{
		Use:   "mappings FILE",
		Short: "Load the full OLT to ODF mapping sheet",
		Long: `Load a mapping sheet (OLT, SLOT, PON, O.D.F, BUFFER, HILO (S) and the optional
EDFA, CHASIS, P./SPLITTER, PON/EDFA, COM/EDFA, SALIDA SPLITTER, ENTRADA, FEEDER columns).

With --replace, existing mappings are deleted first: all of them (--scope all) or those of
the OLTs named with --olt (--scope olt). With --scope olt and no --olt, the OLTs present in
the file are used.

Example: oltctl import mappings --replace --scope olt --olt GRN-OLT1 mapeo.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, ok := ingestion.ParseMappingScope(scope)
			if !ok {
				return fmt.Errorf("invalid scope %q (use all or olt)", scope)
			}
			plan := ingestion.ReplacePlan{Enabled: replace, Scope: parsed, OltNames: olts}
			return runImport(cmd, args[0], func(ctx context.Context, c *container.Container, ds *ingestion.Dataset) (*ingestion.Report, error) {
				return c.Ingestion.ImportMappings(ctx, ds, plan)
			})
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "Delete existing mappings before loading")
	cmd.Flags().StringVar(&scope, "scope", "all", "Replacement scope: all|olt")
	cmd.Flags().StringSliceVar(&olts, "olt", nil, "OLT names whose mappings are replaced (with --scope olt)")
	return cmd
}
