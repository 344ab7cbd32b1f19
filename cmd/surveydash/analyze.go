package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"surveydash/domain/dataset"
	grouping "surveydash/internal/dataset"
	"surveydash/internal/eligibility"
	"surveydash/internal/profiling"
	"surveydash/internal/quality"
	"surveydash/internal/report"
)

func newEligibilityCmd() *cobra.Command {
	var file, intervention, reportPath string
	regions := dataset.DefaultRegions()

	cmd := &cobra.Command{
		Use:   "eligibility",
		Short: "Evaluate an aid intervention's criteria per province and district",
		Long: `Evaluate every eligibility criterion of an intervention against a survey export.

Example: surveydash eligibility --file households.xlsx --intervention Wheat --report wheat.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := readTable(file)
			if err != nil {
				return err
			}
			preset, err := eligibility.Lookup(intervention)
			if err != nil {
				return err
			}
			result, err := eligibility.EvaluateIntervention(cmd.Context(), table, regions, preset)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printInterventionReport(out, result)

			if reportPath != "" {
				md := report.Markdown(result, report.Meta{Dataset: file, Rows: table.Len()})
				if err := os.WriteFile(reportPath, report.HTML(md, preset.Name+" eligibility"), 0o644); err != nil {
					return fmt.Errorf("failed to write report: %w", err)
				}
				fmt.Fprintf(out, "Report written to %s\n", reportPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Survey export (.xlsx or .csv)")
	cmd.Flags().StringVar(&intervention, "intervention", "Wheat", "Wheat, Livestock, Vegetable_Home_Gardening or Cash_for_Work")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write an HTML report to this path")
	cmd.Flags().StringVar(&regions.Province, "province-column", regions.Province, "Province column")
	cmd.Flags().StringVar(&regions.District, "district-column", regions.District, "District column")
	return cmd
}

func printInterventionReport(w io.Writer, r *eligibility.InterventionReport) {
	for i, o := range r.Outcomes {
		fmt.Fprintf(w, "\n%d. %s\n", i+1, o.Criterion.Description)
		printTable(w, o.ResultsTable(), 0)
	}
	fmt.Fprintln(w, "\nAverage percentage for each eligibility criterion")
	pairs := make([][2]string, len(r.Averages))
	for i, a := range r.Averages {
		pairs[i] = [2]string{a.Description, strconv.FormatFloat(a.EligiblePct, 'f', 2, 64)}
	}
	printPairs(w, pairs)
}

func newStatsCmd() *cobra.Command {
	var file, columns string
	var profile bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the statistics card for up to three columns",
		Long: `Print the statistics card: mean and median of the first column, min and max of
the second, outlier count of the third. --profile adds a full distribution per column.

Example: surveydash stats --file households.csv --columns age,income,land`,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := readTable(file)
			if err != nil {
				return err
			}
			cols := splitColumns(columns)
			summary, err := profiling.Describe(table, cols)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printPairs(out, [][2]string{
				{"Total Surveys", strconv.Itoa(summary.Total)},
				{"Mean", formatStat(summary.Mean)},
				{"Median", formatStat(summary.Median)},
				{"Min", formatStat(summary.Min)},
				{"Max", formatStat(summary.Max)},
				{"Outliers", strconv.Itoa(summary.OutlierCount)},
			})

			if !profile {
				return nil
			}
			for _, c := range cols {
				p, err := profiling.Profile(table, c)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\n%s\n", c)
				printPairs(out, [][2]string{
					{"Type", string(p.Types.RecommendedType)},
					{"Count", strconv.Itoa(p.Count)},
					{"Missing", strconv.Itoa(p.MissingCount)},
					{"Mean", formatStat(p.Mean)},
					{"Std Dev", formatStat(p.StdDev)},
					{"Q1", formatStat(p.Q1)},
					{"Median", formatStat(p.Median)},
					{"Q3", formatStat(p.Q3)},
					{"Skewness", formatStat(p.Skewness)},
					{"Outliers", strconv.Itoa(p.OutlierCount)},
				})
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Survey export (.xlsx or .csv)")
	cmd.Flags().StringVar(&columns, "columns", "", "Comma separated columns (at most three are used)")
	cmd.Flags().BoolVar(&profile, "profile", false, "Also print a distribution profile per column")
	return cmd
}

func formatStat(s profiling.Stat) string {
	if !s.Valid() {
		return "n/a"
	}
	return strconv.FormatFloat(float64(s), 'f', 2, 64)
}

func newDurationsCmd() *cobra.Command {
	var file, start, end, out string
	var threshold float64

	cmd := &cobra.Command{
		Use:   "durations",
		Short: "List interviews shorter than a threshold",
		Long: `Keep only interviews whose duration between the start and end columns is under
the threshold, in minutes.

Example: surveydash durations --file households.xlsx --start start --end end --threshold 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := readTable(file)
			if err != nil {
				return err
			}
			short, err := quality.FilterShortDurations(table, start, end, threshold)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%d of %d interviews took less than %g minutes\n", short.Len(), table.Len(), threshold)
			if out != "" {
				return writeWorkbook(out, short)
			}
			if short.Len() == 0 {
				return nil
			}
			sel, err := short.Select(start, end, quality.DurationColumn)
			if err != nil {
				return err
			}
			printTable(w, sel, 50)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Survey export (.xlsx or .csv)")
	cmd.Flags().StringVar(&start, "start", "start", "Interview start column")
	cmd.Flags().StringVar(&end, "end", "end", "Interview end column")
	cmd.Flags().Float64Var(&threshold, "threshold", quality.DefaultThresholdMinutes, "Threshold in minutes")
	cmd.Flags().StringVar(&out, "out", "", "Write the short interviews to this workbook")
	return cmd
}

func newGroupsCmd() *cobra.Command {
	var file, by, out string

	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Count responses grouped by one or more columns",
		Long: `Count responses grouped by one or more columns.

Example: surveydash groups --file households.csv --by gen_info/province,gen_info/sex`,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := readTable(file)
			if err != nil {
				return err
			}
			columns := splitColumns(by)
			if len(columns) == 0 {
				return fmt.Errorf("--by is required")
			}
			counts, total, err := grouping.GroupCounts(table, columns)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			printTable(w, counts, 0)
			fmt.Fprintf(w, "Total: %d\n", total)
			if out != "" {
				return writeWorkbook(out, counts)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Survey export (.xlsx or .csv)")
	cmd.Flags().StringVar(&by, "by", "", "Comma separated grouping columns")
	cmd.Flags().StringVar(&out, "out", "", "Write the counts to this workbook")
	return cmd
}
