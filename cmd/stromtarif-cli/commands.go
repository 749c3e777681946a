package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/stromtarif/stromtarif/pkg/common"
	"github.com/stromtarif/stromtarif/pkg/source"
	"github.com/stromtarif/stromtarif/pkg/tariff"
	"github.com/stromtarif/stromtarif/pkg/types"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stromtarif-cli",
		Short:         "Electricity cost calculator for German day-ahead spot prices",
		Version:       common.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(`{{printf "stromtarif-cli version: %s\n" .Version}}`)
	root.AddCommand(
		newDeviceCostCmd(),
		newEVCostCmd(),
		newMonthCmd(),
		newWeeksCmd(),
	)
	return root
}

// renderTable writes a boxed table with a header row.
func renderTable(out io.Writer, data pterm.TableData) error {
	table, err := pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithData(data).
		Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, table)
	return err
}

func printWarnings(out io.Writer, msgs []string) {
	for _, msg := range msgs {
		fmt.Fprint(out, pterm.Warning.Sprintln(msg))
	}
}

func formatValue(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", tariff.Round2(*v))
}

func newDeviceCostCmd() *cobra.Command {
	var (
		d     types.Device
		price float64
	)
	cmd := &cobra.Command{
		Use:   "device-cost",
		Short: "Yearly consumption and cost of a device at a flat price",
		RunE: func(cmd *cobra.Command, args []string) error {
			res := tariff.DeviceCost(d, price)
			out := cmd.OutOrStdout()
			printWarnings(out, res.Validation)
			return renderTable(out, pterm.TableData{
				{"Gerät", "kWh/Jahr", "Kosten/Jahr"},
				{d.Name, formatValue(&res.AnnualKWh), formatValue(&res.AnnualCost)},
			})
		},
	}
	cmd.Flags().StringVar(&d.Name, "name", "Gerät", "Name of the device")
	cmd.Flags().Float64Var(&d.Watts, "watts", 0, "Power draw in watts")
	cmd.Flags().Float64Var(&d.UsageAmount, "amount", 0, "Hours of use per period")
	cmd.Flags().StringVar((*string)(&d.UsagePeriod), "period", string(types.UsageDaily), "Usage period (daily, weekly, yearly)")
	cmd.Flags().BoolVar(&d.Baseload, "baseload", false, "Device runs around the clock")
	cmd.Flags().Float64Var(&price, "price", 0, "Price per kWh")
	return cmd
}

func newEVCostCmd() *cobra.Command {
	var (
		ev    types.EVCharging
		price float64
	)
	cmd := &cobra.Command{
		Use:   "ev-cost",
		Short: "Weekly and yearly charging cost of an electric vehicle",
		RunE: func(cmd *cobra.Command, args []string) error {
			res := tariff.EVCost(ev, price)
			out := cmd.OutOrStdout()
			printWarnings(out, res.Validation)
			return renderTable(out, pterm.TableData{
				{"kWh/Woche", "Kosten/Woche", "Kosten/Jahr"},
				{formatValue(res.WeeklyKWh), formatValue(res.WeeklyCost), formatValue(res.AnnualCost)},
			})
		},
	}
	cmd.Flags().Float64Var(&ev.BatteryKWh, "battery", 0, "Battery capacity in kWh")
	cmd.Flags().BoolVar(&ev.Manual, "manual", false, "Use --per-week instead of the standard charging frequency")
	cmd.Flags().Float64Var(&ev.ChargesPerWeek, "per-week", 0, "Full charges per week when --manual is set")
	cmd.Flags().Float64Var(&price, "price", 0, "Price per kWh")
	return cmd
}

type monthOptions struct {
	baseURL     string
	timeout     time.Duration
	month       string
	strategy    string
	consumption float64
	unit        string
	ownPrice    float64
}

func newMonthCmd() *cobra.Command {
	var opts monthOptions
	cmd := &cobra.Command{
		Use:   "month",
		Short: "Daily and weekly average prices of a month with an optional cost projection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonth(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "http://localhost:3000", "Base URL of the price and profile API")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Timeout for a single upstream request")
	cmd.Flags().StringVar(&opts.month, "month", "", "Month as MM/YYYY")
	cmd.Flags().StringVar(&opts.strategy, "strategy", string(types.WeekStrategyTable), "Week bucketing (table or computed)")
	cmd.Flags().Float64Var(&opts.consumption, "consumption", 0, "Consumption in kWh to project the cost for")
	cmd.Flags().StringVar(&opts.unit, "unit", string(types.ConsumptionMonthly), "Period of --consumption (daily, monthly, yearly)")
	cmd.Flags().Float64Var(&opts.ownPrice, "own-price", 0, "Own price per kWh used instead of the average")
	_ = cmd.MarkFlagRequired("month")
	return cmd
}

func runMonth(ctx context.Context, cmd *cobra.Command, opts monthOptions) error {
	bucketer, err := tariff.Bucketer(types.WeekStrategy(opts.strategy))
	if err != nil {
		return err
	}
	if _, _, err := tariff.ParseMonthKey(opts.month); err != nil {
		return err
	}

	client := source.New(opts.baseURL, common.HTTPClient(opts.timeout))
	if err := client.Validate(); err != nil {
		return err
	}
	status := cmd.ErrOrStderr()
	fmt.Fprint(status, pterm.Info.Sprintfln("Lade Preise von %s", opts.baseURL))
	ds, err := client.Load(ctx)
	if err != nil {
		fmt.Fprint(status, pterm.Error.Sprintln(source.UserMessage(err)))
		return err
	}
	fmt.Fprint(status, pterm.Success.Sprintfln("%d Tage geladen", len(ds.Prices)))

	agg, err := tariff.AggregateMonth(ds.Prices, opts.month, bucketer)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(agg.Days) == 0 {
		fmt.Fprint(out, pterm.Warning.Sprintln(fmt.Sprintf("Keine Daten für %s verfügbar", opts.month)))
		return nil
	}

	days := pterm.TableData{{"Datum", "Ø ct/kWh"}}
	for _, d := range agg.Days {
		days = append(days, []string{d.Date, formatValue(d.Average)})
	}
	if err := renderTable(out, days); err != nil {
		return err
	}
	fmt.Fprintf(out, "Monatsdurchschnitt: %s ct/kWh\n", formatValue(agg.Average))
	if agg.Cheapest != nil {
		fmt.Fprintf(out, "Günstigster Tag: %s (%s)\n", agg.Cheapest.Date, formatValue(agg.Cheapest.Average))
		fmt.Fprintf(out, "Teuerster Tag: %s (%s)\n", agg.MostExpensive.Date, formatValue(agg.MostExpensive.Average))
	}

	var projection *types.Projection
	if cmd.Flags().Changed("consumption") {
		var own *float64
		if cmd.Flags().Changed("own-price") {
			own = &opts.ownPrice
		}
		p, err := tariff.Project(agg, opts.consumption, types.ConsumptionUnit(opts.unit), own)
		if err != nil {
			return err
		}
		printWarnings(out, p.Validation)
		fmt.Fprintf(out, "Verbrauch: %.2f kWh, Kosten: %s\n", tariff.Round2(p.MonthlyKWh), formatValue(p.MonthCost))
		projection = &p
	}

	weeks := pterm.TableData{{"KW", "Zeitraum", "Ø ct/kWh", "Günstigster Tag", "Teuerster Tag"}}
	if projection != nil {
		weeks[0] = append(weeks[0], "Kosten")
	}
	for i, w := range agg.Weeks {
		cheapest, expensive := "-", "-"
		if w.Cheapest != nil {
			cheapest = w.Cheapest.Date
			expensive = w.MostExpensive.Date
		}
		row := []string{w.WeekNumber, w.DateRange[0] + " - " + w.DateRange[1], formatValue(w.Average), cheapest, expensive}
		if projection != nil {
			row = append(row, formatValue(projection.Weeks[i].Cost))
		}
		weeks = append(weeks, row)
	}
	return renderTable(out, weeks)
}

func newWeeksCmd() *cobra.Command {
	var month, strategy string
	cmd := &cobra.Command{
		Use:   "weeks",
		Short: "Calendar weeks of a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			year, m, err := tariff.ParseMonthKey(month)
			if err != nil {
				return err
			}
			bucketer, err := tariff.Bucketer(types.WeekStrategy(strategy))
			if err != nil {
				return err
			}
			weeks, err := bucketer.Weeks(year, m)
			if err != nil {
				return err
			}
			data := pterm.TableData{{"KW", "Von", "Bis", "Tage"}}
			for _, w := range weeks {
				r := w.DateRange()
				data = append(data, []string{w.WeekNumber, r[0], r[1], fmt.Sprint(len(w.MemberDates))})
			}
			return renderTable(cmd.OutOrStdout(), data)
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "Month as MM/YYYY")
	cmd.Flags().StringVar(&strategy, "strategy", string(types.WeekStrategyTable), "Week bucketing (table or computed)")
	_ = cmd.MarkFlagRequired("month")
	return cmd
}
