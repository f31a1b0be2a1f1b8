package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bibbank/claimrisk/pkg/tlsutil"
)

func newCertsCommand() *cobra.Command {
	var (
		outDir   string
		hosts    []string
		validity time.Duration
	)

	cmd := &cobra.Command{
		Use:   "certs",
		Short: "Generate a development CA and server certificate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := tlsutil.GenerateDevCertificates(hosts, outDir, validity); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s, %s, %s and %s to %s\n",
				tlsutil.CAFile, tlsutil.CAKeyFile, tlsutil.ServerFile, tlsutil.ServerKeyFile, outDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "certs", "output directory")
	cmd.Flags().StringSliceVar(&hosts, "host", []string{"localhost", "127.0.0.1"}, "DNS name or IP for the server certificate, repeatable")
	cmd.Flags().DurationVar(&validity, "validity", 365*24*time.Hour, "server certificate lifetime")
	return cmd
}
