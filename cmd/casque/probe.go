package main

import (
	"fmt"
	"time"

	"github.com/layer-3/casque/adapters/radius"
	"github.com/layer-3/casque/config"
	"github.com/layer-3/casque/core"
	"github.com/spf13/cobra"
)

func newProbeCmd() *cobra.Command {
	var (
		confPath string
		username string
		tokenID  string
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Send a first-round access request to check the CASQUE SNR configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			casqueCfg, err := config.LoadFile(confPath)
			if err != nil {
				return err
			}

			id, err := core.ParseTokenID(tokenID, username)
			if err != nil {
				return err
			}

			client := radius.NewClient(casqueCfg, timeout)
			ex := client.Send(cmd.Context(), core.AccessRequest{
				Principal:  core.BootstrapPrincipal,
				Credential: id.Credential(username),
			})

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "outcome: %s\n", ex.Outcome)
			switch ex.Outcome {
			case core.OutcomeChallenge:
				fmt.Fprintf(out, "challenge: %s\n", ex.Challenge)
			case core.OutcomeError:
				return fmt.Errorf("probe failed: %s", ex.Reason())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&confPath, "conf", config.Load().CasqueConf, "path to casque.conf")
	cmd.Flags().StringVarP(&username, "user", "u", "", "username to probe with")
	cmd.Flags().StringVarP(&tokenID, "token", "t", "", "token id of the user, e.g. \"FFF 000001\"")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "exchange timeout")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("token")

	return cmd
}
