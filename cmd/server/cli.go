package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"twstock-dashboard/internal/labels"
	"twstock-dashboard/internal/models"
	"twstock-dashboard/internal/services"
)

var (
	startFlag   string
	endFlag     string
	langFlag    string
	exportPath  string
	holdoutFlag int
	showPoints  int

	showCmd = &cobra.Command{
		Use:   "show [ticker]",
		Short: "Print head, tail and summary of a ticker's price history",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runShow,
	}

	forecastCmd = &cobra.Command{
		Use:   "forecast [ticker]",
		Short: "Fit the forecast model on all but the last holdout rows and report validation error",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runForecast,
	}

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)
)

func init() {
	for _, cmd := range []*cobra.Command{showCmd, forecastCmd} {
		cmd.Flags().StringVar(&startFlag, "start", "", "first day, YYYY-MM-DD (default from config)")
		cmd.Flags().StringVar(&endFlag, "end", "", "last day, YYYY-MM-DD (default today)")
		cmd.Flags().StringVar(&langFlag, "lang", "", "display language: zh-TW or en")
	}
	showCmd.Flags().StringVar(&exportPath, "export", "", "also write the series to this .xlsx file")
	forecastCmd.Flags().IntVar(&holdoutFlag, "holdout", 0, "rows withheld from training (default from config)")
	forecastCmd.Flags().IntVar(&showPoints, "points", 10, "number of trailing forecast points to print")

	rootCmd.AddCommand(showCmd, forecastCmd)
}

func stateFromFlags(args []string) (services.DashboardState, error) {
	state := services.DashboardState{Lang: langFlag, Holdout: holdoutFlag}
	if len(args) == 1 {
		state.Ticker = args[0]
	}
	var err error
	if state.Start, err = models.ParseDay(startFlag); err != nil {
		return state, fmt.Errorf("--start: %w", err)
	}
	if state.End, err = models.ParseDay(endFlag); err != nil {
		return state, fmt.Errorf("--end: %w", err)
	}
	return state, nil
}

func runShow(cmd *cobra.Command, args []string) error {
	c, err := bootstrap()
	if err != nil {
		return err
	}
	state, err := stateFromFlags(args)
	if err != nil {
		return err
	}
	return showTicker(cmd.Context(), cmd.OutOrStdout(), c.dashboard, state, exportPath)
}

// showTicker prints one dashboard run and optionally exports the same series.
func showTicker(ctx context.Context, out io.Writer, dashboard *services.Dashboard, state services.DashboardState, export string) error {
	view := dashboard.Render(ctx, state)
	l := view.Labels

	fmt.Fprintln(out, titleStyle.Render(l.PageTitle+" "+view.Ticker))
	fmt.Fprintln(out, statusStyle.Render(view.Message))
	if !view.HasData() {
		return fmt.Errorf("%s: %s", view.Ticker, view.Status)
	}

	printTable(out, l.Head, l.Date, view.Head)
	printTable(out, l.Tail, l.Date, view.Tail)
	printTable(out, l.Summary, "", view.Summary)

	if export == "" {
		return nil
	}
	f, err := os.Create(export)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := services.WriteWorkbook(f, view.Series, l); err != nil {
		return err
	}
	fmt.Fprintln(out, statusStyle.Render(l.Export+": "+export))
	return f.Close()
}

func runForecast(cmd *cobra.Command, args []string) error {
	c, err := bootstrap()
	if err != nil {
		return err
	}
	state, err := stateFromFlags(args)
	if err != nil {
		return err
	}
	state = c.dashboard.WithDefaults(state)
	l := labels.For(state.Lang)
	out := cmd.OutOrStdout()

	ticker := services.ResolveTicker(state, c.cfg.Dashboard.DefaultTicker)
	series, err := c.market.Load(cmd.Context(), ticker, state.Start, state.End)
	if err != nil {
		return err
	}
	if series.Empty() {
		return fmt.Errorf("%s: %s", ticker, l.NotFound)
	}

	result, err := c.forecaster.Forecast(cmd.Context(), series, state.Holdout)
	if errors.Is(err, services.ErrInsufficientData) {
		fmt.Fprintln(out, statusStyle.Render(l.Insufficient))
		return err
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%s %s (%s, holdout %d)", l.ForecastTitle, result.Ticker, result.Model, result.Holdout)))
	fmt.Fprintf(out, "%s: MAE %.2f  RMSE %.2f  MAPE %.2f%%\n\n", l.MetricsCaption, result.Metrics.MAE, result.Metrics.RMSE, result.Metrics.MAPE)

	points := result.Points
	if showPoints > 0 && len(points) > showPoints {
		points = points[len(points)-showPoints:]
	}
	t := models.Table{Header: []string{l.Actual, l.Predicted, l.Interval}}
	for _, p := range points {
		t.Rows = append(t.Rows, models.TableRow{
			Label: p.Date,
			Cells: []string{
				services.FormatPrice(p.Actual),
				services.FormatPrice(p.Predicted),
				services.FormatPrice(p.Lower) + " ~ " + services.FormatPrice(p.Upper),
			},
		})
	}
	printTable(out, l.Validation, l.Date, t)
	return nil
}

func printTable(w io.Writer, title, corner string, t models.Table) {
	rows := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		rows = append(rows, append([]string{r.Label}, r.Cells...))
	}
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(append([]string{corner}, t.Header...)...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	fmt.Fprintln(w, titleStyle.Render(title))
	fmt.Fprintln(w, tbl.String())
	fmt.Fprintln(w)
}
