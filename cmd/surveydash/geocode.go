package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"surveydash/domain/geo"
	"surveydash/internal/config"
	"surveydash/internal/container"
)

func newGeocodeCmd() *cobra.Command {
	var file, column, out string

	cmd := &cobra.Command{
		Use:   "geocode",
		Short: "Resolve a GPS column to province, district and village",
		Long: `Reverse geocode a "lat lon" coordinate column and write the table with
Province, District and Village columns added.

Lookups are paced by GEOCODER_RATE_LIMIT and retried GEO_RETRIES times.

Example: surveydash geocode --file households.xlsx --column gen_info/gps --out resolved.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := readTable(file)
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c, err := container.New(cfg)
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			resolved, resolutions, err := c.Resolver.Resolve(cmd.Context(), table, column)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			counts := map[string]int{}
			for _, r := range resolutions {
				switch r.Province {
				case geo.NoData, geo.InvalidData, geo.Error:
					counts[r.Province]++
				default:
					counts["resolved"]++
				}
			}
			fmt.Fprintf(w, "%d rows: %d resolved, %d no data, %d invalid, %d failed\n",
				len(resolutions), counts["resolved"], counts[geo.NoData], counts[geo.InvalidData], counts[geo.Error])

			if out == "" {
				sel, err := resolved.Select(column, geo.ColumnProvince, geo.ColumnDistrict, geo.ColumnVillage)
				if err != nil {
					return err
				}
				printTable(w, sel, 50)
				return nil
			}
			if err := writeWorkbook(out, resolved); err != nil {
				return err
			}
			fmt.Fprintf(w, "Written to %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Survey export (.xlsx or .csv)")
	cmd.Flags().StringVar(&column, "column", "", "Coordinate column holding \"lat lon\"")
	cmd.Flags().StringVar(&out, "out", "", "Write the resolved table to this workbook")
	_ = cmd.MarkFlagRequired("column")
	return cmd
}
