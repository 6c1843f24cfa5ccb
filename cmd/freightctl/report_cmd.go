package main

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/iota-uz/iota-freight/modules/freight/domain/aggregates/load"
	"github.com/iota-uz/iota-freight/modules/freight/services"
)

const (
	heldSheet      = "Held loads"
	reportPageSize = 500
)

var heldColumns = []string{
	"Order", "Load ID", "Type", "HCR", "Trip", "Reason code", "Reason", "Held at", "Held by", "POD on file",
}

func newReportCmd(id *identity) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export freight reports",
	}
	cmd.AddCommand(newHeldReportCmd(id))
	return cmd
}

func newHeldReportCmd(id *identity) *cobra.Command {
	var (
		out   string
		query string
	)

	cmd := &cobra.Command{
		Use:   "held",
		Short: "Export held loads to an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			auth, err := id.auth()
			if err != nil {
				return err
			}

			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			start := time.Now()
			var loads []load.Load
			for offset := 0; ; offset += reportPageSize {
				page, err := rt.loads.ListHeld(rt.ctx, auth, services.HeldFilter{Limit: reportPageSize, Offset: offset, Query: query})
				if err != nil {
					return err
				}
				loads = append(loads, page.Loads...)
				if len(page.Loads) < reportPageSize || int64(len(loads)) >= page.Total {
					break
				}
			}

			f, err := os.Create(out)
			if err != nil {
				return withCode(exitUsage, errors.Wrapf(err, "create %s", out))
			}
			if err := writeHeldReport(f, loads); err != nil {
				_ = f.Close()
				return withCode(exitDB, err)
			}
			if err := f.Close(); err != nil {
				return withCode(exitDB, errors.Wrapf(err, "close %s", out))
			}
			return emit("report held", start, map[string]any{"file": out, "rows": len(loads)}, true, "")
		},
	}

	cmd.Flags().StringVar(&out, "out", "held-loads.xlsx", "Output file")
	cmd.Flags().StringVar(&query, "q", "", "Filter on order number or hold note")
	return cmd
}

// writeHeldReport renders one header row plus one row per load.
func writeHeldReport(w io.Writer, loads []load.Load) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", heldSheet); err != nil {
		return errors.Wrap(err, "rename sheet")
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "header style")
	}

	for i, title := range heldColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return errors.WithStack(err)
		}
		if err := f.SetCellValue(heldSheet, cell, title); err != nil {
			return errors.Wrapf(err, "write header %s", cell)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(heldColumns), 1)
	if err := f.SetCellStyle(heldSheet, "A1", last, bold); err != nil {
		return errors.Wrap(err, "style header")
	}

	for i, l := range loads {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.WithStack(err)
		}
		if err := f.SetSheetRow(heldSheet, cell, heldRow(l)); err != nil {
			return errors.Wrapf(err, "write row %d", i+2)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(err, "write workbook")
	}
	return nil
}

func heldRow(l load.Load) *[]any {
	route := l.Route()
	heldAt, heldBy, pod := "", "", "no"
	if at := l.HeldAt(); at != nil {
		heldAt = at.UTC().Format(time.RFC3339)
	}
	if by := l.HeldBy(); by != nil {
		heldBy = by.String()
	}
	if l.HasSignedPOD() {
		pod = "yes"
	}
	row := []any{
		l.OrderNumber(),
		l.ID().String(),
		string(l.Type()),
		route.HCR,
		route.TripNumber,
		string(l.HeldReasonCode()),
		l.HeldReason(),
		heldAt,
		heldBy,
		pod,
	}
	return &row
}
