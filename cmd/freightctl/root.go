package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/iota-uz/iota-freight/modules/freight/services"
)

type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string {
	return e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

const (
	exitOK         = 0
	exitValidation = 2
	exitUsage      = 3
	exitDB         = 4
	exitRejected   = 5
)

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	var se *services.ServiceError
	if errors.As(err, &se) {
		if se.Status >= 500 {
			return exitDB
		}
		return exitValidation
	}
	return 1
}

// identity is the caller on whose behalf the command acts.
type identity struct {
	org   string
	actor string
}

func (id *identity) bind(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&id.org, "org", os.Getenv("FREIGHT_ORG_ID"), "Organization UUID (or FREIGHT_ORG_ID)")
	cmd.PersistentFlags().StringVar(&id.actor, "actor", os.Getenv("FREIGHT_ACTOR_ID"), "Acting user UUID (or FREIGHT_ACTOR_ID)")
}

func (id *identity) auth() (services.AuthContext, error) {
	org, err := parseUUIDFlag("org", id.org)
	if err != nil {
		return services.AuthContext{}, err
	}
	actor, err := parseUUIDFlag("actor", id.actor)
	if err != nil {
		return services.AuthContext{}, err
	}
	return services.AuthContext{OrganizationID: org, ActorID: actor}, nil
}

func parseUUIDFlag(name, raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, withCode(exitUsage, fmt.Errorf("--%s is required", name))
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, withCode(exitUsage, errors.Wrapf(err, "invalid --%s", name))
	}
	return id, nil
}

func parseUUIDList(name string, raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := parseUUIDFlag(name, r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, withCode(exitUsage, fmt.Errorf("--%s is required", name))
	}
	return ids, nil
}

func writeJSONLine(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return withCode(exitDB, errors.Wrap(err, "json encode"))
	}
	return nil
}

func newRootCmd() *cobra.Command {
	id := &identity{}
	cmd := &cobra.Command{
		Use:           "freightctl",
		Short:         "Freight settlement eligibility and lane promotion tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	id.bind(cmd)

	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newHoldCmd(id))
	cmd.AddCommand(newReleaseCmd(id))
	cmd.AddCommand(newConvertCmd(id))
	cmd.AddCommand(newCountMatchesCmd(id))
	cmd.AddCommand(newReportCmd(id))
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}

func main() {
	Execute()
}
