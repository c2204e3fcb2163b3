package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var lookupGreet bool

var lookupCmd = &cobra.Command{
	Use:   "lookup <email>",
	Short: "Find an attendee across the registry sources",
	Args:  cobra.ExactArgs(1),
	RunE:  runLookup,
}

func init() {
	lookupCmd.Flags().BoolVar(&lookupGreet, "greet", false, "Also generate a greeting for the attendee")
}

type lookupOutput struct {
	LookupID           string `json:"lookup_id"`
	Name               string `json:"name"`
	RegistrationNumber string `json:"registration_number"`
	Email              string `json:"email"`
	Source             string `json:"source"`
	Greeting           string `json:"greeting,omitempty"`
	GreetingFallback   bool   `json:"greeting_fallback,omitempty"`
}

func runLookup(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	rt, err := newRuntime(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.tickets.Lookup(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("lookup %s: %w", args[0], err)
	}
	out := lookupOutput{
		LookupID:           res.ID,
		Name:               res.Attendee.Name,
		RegistrationNumber: res.Attendee.RegistrationNumber,
		Email:              res.Attendee.Email,
		Source:             res.Attendee.Source,
	}
	if lookupGreet {
		g := rt.tickets.Greeting(cmd.Context(), res.Attendee.Name)
		out.Greeting, out.GreetingFallback = g.Text, g.Fallback
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
