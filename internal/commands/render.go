package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/diag"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/envcheck"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/smoke"
)

func okWord(ok bool) string {
	if ok {
		return "ok"
	}
	return "FAIL"
}

func writeEnvText(w io.Writer, rep envcheck.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if rep.EnvFile != "" {
		found := "not found"
		if rep.EnvFileFound {
			found = "loaded"
		}
		fmt.Fprintf(tw, "env file %s: %s\n", rep.EnvFile, found)
	}
	for _, k := range rep.Keys {
		if k.Present {
			fmt.Fprintf(tw, "  %s\tset\t%s\t%s\n", k.Name, k.Masked, k.Source)
		} else {
			fmt.Fprintf(tw, "  %s\tmissing\t\t\n", k.Name)
		}
	}
	for _, n := range rep.Notes {
		fmt.Fprintf(tw, "note: %s\n", n)
	}
	for _, i := range rep.Issues {
		fmt.Fprintf(tw, "issue: %s\n", i)
	}
	fmt.Fprintf(tw, "env: %s\n", okWord(rep.OK))
	return tw.Flush()
}

func writeDriverText(w io.Writer, rep diag.DriverReport) error {
	if rep.OK {
		_, err := fmt.Fprintf(w, "driver %s (%s): ok, server %s, %dms\n", rep.Driver, rep.Target, rep.Version, rep.DurationMS)
		return err
	}
	_, err := fmt.Fprintf(w, "driver %s (%s): FAIL [%s] %s\n", rep.Driver, rep.Target, rep.ErrorKind, rep.Error)
	return err
}

func writeCRUDText(w io.Writer, rep smoke.CRUDReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "crud on %s\n", rep.Table)
	for _, s := range rep.Steps {
		fmt.Fprintf(tw, "  %s\t%s\t%dms\t%s\n", s.Name, okWord(s.OK), s.DurationMS, s.Detail)
	}
	if rep.Error != "" {
		fmt.Fprintf(tw, "error: %s\n", rep.Error)
	}
	fmt.Fprintf(tw, "crud: %s\n", okWord(rep.OK))
	return tw.Flush()
}

func writeHeatmapText(w io.Writer, rep smoke.HeatmapReport) error {
	if rep.OK {
		_, err := fmt.Fprintf(w, "heatmap %s: ok, HTTP %d, %d points, %dms\n", rep.URL, rep.StatusCode, rep.Points, rep.DurationMS)
		return err
	}
	_, err := fmt.Fprintf(w, "heatmap %s: FAIL %s\n", rep.URL, rep.Error)
	return err
}
