package grpc_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/bibbank/claimrisk/internal/application/dto"
	grpcpres "github.com/bibbank/claimrisk/internal/presentation/grpc"
	"github.com/bibbank/claimrisk/pkg/auth"
)

func startServer(t *testing.T, scorer grpcpres.ClaimScorer, validator auth.TokenValidator) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpcpres.NewServer(
		grpcpres.NewClaimRiskHandler(scorer, &fakeReader{}, discardLogger()),
		grpcpres.ServerConfig{Validator: validator},
		discardLogger(),
	)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestServer_ScoreClaimOverJSONCodec(t *testing.T) {
	scorer := &fakeScorer{resp: dto.AssessmentResponse{Decision: "reject", OverriddenBy: []string{"blacklist_hit"}}}
	conn := startServer(t, scorer, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := grpcpres.NewClaimRiskServiceClient(conn)
	reply, err := client.ScoreClaim(ctx, &grpcpres.ScoreClaimRequest{
		Claim: dto.ScoreClaimRequest{ClaimantID: "claimant-0001", Provider: "shady_clinic", Notes: "whiplash"},
	})
	require.NoError(t, err)
	assert.Equal(t, "reject", reply.Assessment.Decision)
	assert.Equal(t, []string{"blacklist_hit"}, reply.Assessment.OverriddenBy)
	assert.Equal(t, "whiplash", scorer.got.Notes)

	health, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: grpcpres.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, health.Status)
}

func TestServer_Auth(t *testing.T) {
	jwtSvc, err := auth.NewJWTService(auth.JWTConfig{Secret: "grpc-test", Issuer: "claimrisk", Expiration: time.Minute})
	require.NoError(t, err)
	conn := startServer(t, &fakeScorer{}, jwtSvc)
	client := grpcpres.NewClaimRiskServiceClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = client.ScoreClaim(ctx, &grpcpres.ScoreClaimRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	auditor, err := jwtSvc.GenerateToken("aud", []string{auth.RoleAuditor})
	require.NoError(t, err)
	_, err = client.ScoreClaim(metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+auditor), &grpcpres.ScoreClaimRequest{})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	adjuster, err := jwtSvc.GenerateToken("adj", []string{auth.RoleAdjuster})
	require.NoError(t, err)
	_, err = client.ScoreClaim(metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+adjuster), &grpcpres.ScoreClaimRequest{})
	assert.NoError(t, err)

	_, err = healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	assert.NoError(t, err, "health is exempt from auth")
}
