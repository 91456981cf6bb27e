package main

import (
	"github.com/spf13/cobra"

	"oltmap/internal/seed"
)

func newSeedCmd() *cobra.Command {
	cfg := seed.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the demonstration inventory (GRN-OLT1 and its feeder ODF)",
		Long: `Load the demonstration inventory: GRN-OLT1 with every service slot populated,
an EDFA, a chassis with a 1:4 splitter, a 12-fiber ODF and one mapping per fiber.

Running it again replaces the ports and mappings of GRN-OLT1.

Example: oltctl seed --ports-per-slot 8 --mappings 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			res, err := seed.Run(cmd.Context(), c.Store, cfg, c.Logger)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().IntVar(&cfg.PortsPerSlot, "ports-per-slot", cfg.PortsPerSlot, "Ports created in each service slot")
	cmd.Flags().IntVar(&cfg.Mappings, "mappings", cfg.Mappings, "Ports wired to the ODF, at most 12")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed for the optical readings")
	return cmd
}
