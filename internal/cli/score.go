package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/bibbank/claimrisk/internal/application/dto"
	grpcpresentation "github.com/bibbank/claimrisk/internal/presentation/grpc"
	"github.com/bibbank/claimrisk/pkg/observability"
	"github.com/bibbank/claimrisk/pkg/tlsutil"
)

type scoreOptions struct {
	addr            string
	caFile          string
	token           string
	plaintext       bool
	skipVerify      bool
	record          bool
	allowAlarmsOnly bool
}

func newScoreCommand(opts *rootOptions) *cobra.Command {
	so := &scoreOptions{}

	cmd := &cobra.Command{
		Use:   "score [claim.json|-]",
		Short: "Score one claim and print the assessment",
		Long: `Score a claim read as JSON from a file or stdin. With --addr the claim is
sent to a running service over gRPC; otherwise the pipeline runs in-process
against the configured database. In-process runs are not recorded unless
--record is set.`,
		Example: `  claimrisk score claim.json
  cat claim.json | claimrisk score --addr localhost:8088 --plaintext --token $TOKEN`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readClaim(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			req.AllowAlarmsOnly = req.AllowAlarmsOnly || so.allowAlarmsOnly

			var resp dto.AssessmentResponse
			if so.addr != "" {
				resp, err = scoreRemote(cmd.Context(), so, req)
			} else {
				req.DryRun = !so.record
				resp, err = scoreLocal(cmd.Context(), opts, cmd.ErrOrStderr(), req)
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}

	f := cmd.Flags()
	f.StringVar(&so.addr, "addr", "", "gRPC address of a running service")
	f.StringVar(&so.caFile, "ca-file", "", "CA certificate for --addr")
	f.StringVar(&so.token, "token", os.Getenv("CLAIMRISK_TOKEN"), "bearer token for --addr")
	f.BoolVar(&so.plaintext, "plaintext", false, "connect to --addr without TLS")
	f.BoolVar(&so.skipVerify, "insecure-skip-verify", false, "skip server certificate verification")
	f.BoolVar(&so.record, "record", false, "persist the in-process assessment and publish its events")
	f.BoolVar(&so.allowAlarmsOnly, "allow-alarms-only", false, "decide from alarms alone if the probability source fails")
	return cmd
}

func readClaim(stdin io.Reader, args []string) (dto.ScoreClaimRequest, error) {
	src := stdin
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return dto.ScoreClaimRequest{}, fmt.Errorf("opening claim: %w", err)
		}
		defer f.Close()
		src = f
	}

	var req dto.ScoreClaimRequest
	dec := json.NewDecoder(src)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return dto.ScoreClaimRequest{}, fmt.Errorf("decoding claim: %w", err)
	}
	return req, nil
}

func scoreLocal(ctx context.Context, opts *rootOptions, logOut io.Writer, req dto.ScoreClaimRequest) (dto.AssessmentResponse, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return dto.AssessmentResponse{}, err
	}
	logger := observability.InitLogger(observability.LogConfig{
		Output: logOut,
		Level:  cfg.Log.Level,
		Format: "text",
	})

	app, err := buildComponents(ctx, cfg, logger, nil)
	if err != nil {
		return dto.AssessmentResponse{}, err
	}
	defer app.Close()

	return app.scoreClaim.Execute(ctx, req)
}

func scoreRemote(ctx context.Context, so *scoreOptions, req dto.ScoreClaimRequest) (dto.AssessmentResponse, error) {
	var creds credentials.TransportCredentials
	if so.plaintext {
		creds = insecure.NewCredentials()
	} else {
		var err error
		if creds, err = tlsutil.ClientCredentials(so.caFile, so.skipVerify); err != nil {
			return dto.AssessmentResponse{}, err
		}
	}

	conn, err := grpc.NewClient(so.addr, grpc.WithTransportCredentials(creds))
	if err != nil {
		return dto.AssessmentResponse{}, fmt.Errorf("connecting to %s: %w", so.addr, err)
	}
	defer conn.Close()

	if so.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+so.token)
	}

	reply, err := grpcpresentation.NewClaimRiskServiceClient(conn).ScoreClaim(ctx, &grpcpresentation.ScoreClaimRequest{Claim: req})
	if err != nil {
		return dto.AssessmentResponse{}, fmt.Errorf("scoring claim: %w", err)
	}
	return reply.Assessment, nil
}
