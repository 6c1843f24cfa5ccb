package main

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iota-uz/iota-freight/modules/freight/domain/aggregates/load"
	"github.com/iota-uz/iota-freight/modules/freight/services"
)

type commandOutput struct {
	Command    string `json:"command"`
	DurationMS int64  `json:"duration_ms"`
	Result     any    `json:"result"`
}

// emit prints the result and turns a business rejection into exitRejected.
func emit(command string, start time.Time, result any, success bool, message string) error {
	if err := writeJSONLine(commandOutput{
		Command:    command,
		DurationMS: time.Since(start).Milliseconds(),
		Result:     result,
	}); err != nil {
		return err
	}
	if !success {
		return withCode(exitRejected, fmt.Errorf("%s rejected: %s", command, message))
	}
	return nil
}

func newHoldCmd(id *identity) *cobra.Command {
	var (
		loadIDs    []string
		reason     string
		reasonCode string
	)

	cmd := &cobra.Command{
		Use:   "hold",
		Short: "Place loads on hold and detach their payables from open settlements",
		RunE: func(cmd *cobra.Command, args []string) error {
			auth, err := id.auth()
			if err != nil {
				return err
			}
			ids, err := parseUUIDList("load", loadIDs)
			if err != nil {
				return err
			}
			code, err := load.ParseHoldReasonCode(reasonCode)
			if err != nil {
				return withCode(exitUsage, err)
			}

			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			start := time.Now()
			in := services.HoldLoadInput{ReasonCode: code, Reason: reason}
			if len(ids) == 1 {
				res, err := rt.holds.HoldLoad(rt.ctx, auth, ids[0], in)
				if err != nil {
					return err
				}
				return emit("hold", start, res, res.Success, res.Message)
			}
			res, err := rt.holds.BulkHoldLoads(rt.ctx, auth, ids, in)
			if err != nil {
				return err
			}
			return emit("hold", start, res, res.Failed == 0, fmt.Sprintf("%d of %d loads failed", res.Failed, len(ids)))
		},
	}

	cmd.Flags().StringSliceVar(&loadIDs, "load", nil, "Load UUID, repeatable (required)")
	cmd.Flags().StringVar(&reason, "reason", "", "Hold note")
	cmd.Flags().StringVar(&reasonCode, "code", "", "Hold reason code (MISSING_POD|OTHER); derived from --reason when empty")
	_ = cmd.MarkFlagRequired("load")
	return cmd
}

func newReleaseCmd(id *identity) *cobra.Command {
	var loadIDs []string

	cmd := &cobra.Command{
		Use:   "release",
		Short: "Release held loads",
		RunE: func(cmd *cobra.Command, args []string) error {
			auth, err := id.auth()
			if err != nil {
				return err
			}
			ids, err := parseUUIDList("load", loadIDs)
			if err != nil {
				return err
			}

			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			start := time.Now()
			if len(ids) == 1 {
				res, err := rt.holds.ReleaseLoad(rt.ctx, auth, ids[0])
				if err != nil {
					return err
				}
				return emit("release", start, res, res.Success, res.Message)
			}
			res, err := rt.holds.BulkReleaseLoads(rt.ctx, auth, ids)
			if err != nil {
				return err
			}
			return emit("release", start, res, res.Failed == 0, fmt.Sprintf("%d of %d loads failed", res.Failed, len(ids)))
		},
	}

	cmd.Flags().StringSliceVar(&loadIDs, "load", nil, "Load UUID, repeatable (required)")
	_ = cmd.MarkFlagRequired("load")
	return cmd
}

func newConvertCmd(id *identity) *cobra.Command {
	var (
		loadID   string
		name     string
		rateType string
		rate     string
		expect   int64
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Promote a load's route to a contract lane and convert every matching spot load",
		RunE: func(cmd *cobra.Command, args []string) error {
			auth, err := id.auth()
			if err != nil {
				return err
			}
			lid, err := parseUUIDFlag("load", loadID)
			if err != nil {
				return err
			}
			in := services.ConvertToContractInput{ContractName: name, RateType: rateType}
			if rate != "" {
				d, err := decimal.NewFromString(rate)
				if err != nil || d.IsNegative() {
					return withCode(exitUsage, fmt.Errorf("invalid --rate %q", rate))
				}
				in.Rate = &d
			}
			if cmd.Flags().Changed("expect") {
				in.ExpectedMatches = &expect
			}

			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			start := time.Now()
			res, err := rt.lanes.ConvertToContract(rt.ctx, auth, lid, in)
			if err != nil {
				return err
			}
			return emit("convert", start, res, res.Success, res.Message)
		},
	}

	cmd.Flags().StringVar(&loadID, "load", "", "Load UUID (required)")
	cmd.Flags().StringVar(&name, "name", "", "Contract name for a new lane")
	cmd.Flags().StringVar(&rateType, "rate-type", "", "Rate type for a new lane")
	cmd.Flags().StringVar(&rate, "rate", "", "Rate for a new lane")
	cmd.Flags().Int64Var(&expect, "expect", 0, "Abort unless exactly this many spot loads match (see count-matches)")
	_ = cmd.MarkFlagRequired("load")
	return cmd
}

func newCountMatchesCmd(id *identity) *cobra.Command {
	var hcr, trip string

	cmd := &cobra.Command{
		Use:   "count-matches",
		Short: "Count spot loads a conversion on this route would promote",
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
			n, err := rt.lanes.CountMatchingSpotLoads(rt.ctx, auth, hcr, trip)
			if err != nil {
				return err
			}
			return emit("count-matches", start, map[string]any{"hcr": hcr, "trip": trip, "count": n}, true, "")
		},
	}

	cmd.Flags().StringVar(&hcr, "hcr", "", "Hauling contract route (required)")
	cmd.Flags().StringVar(&trip, "trip", "", "Trip number (required)")
	_ = cmd.MarkFlagRequired("hcr")
	_ = cmd.MarkFlagRequired("trip")
	return cmd
}
