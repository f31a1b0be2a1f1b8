package grpc

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/claimrisk/internal/application/dto"
)

// Fully qualified method names, as seen by interceptors.
const (
	ServiceName         = "claimrisk.v1.ClaimRiskService"
	ScoreClaimMethod    = "/" + ServiceName + "/ScoreClaim"
	GetAssessmentMethod = "/" + ServiceName + "/GetAssessment"
)

// ScoreClaimRequest is the ScoreClaim request message.
type ScoreClaimRequest struct {
	Claim dto.ScoreClaimRequest `json:"claim"`
}

// GetAssessmentRequest is the GetAssessment request message.
type GetAssessmentRequest struct {
	ID string `json:"id"`
}

// AssessmentReply is the response message of both methods.
type AssessmentReply struct {
	Assessment dto.AssessmentResponse `json:"assessment"`
}

// ClaimRiskServiceServer is the server API for ClaimRiskService.
type ClaimRiskServiceServer interface {
	ScoreClaim(context.Context, *ScoreClaimRequest) (*AssessmentReply, error)
	GetAssessment(context.Context, *GetAssessmentRequest) (*AssessmentReply, error)
}

// UnimplementedClaimRiskServiceServer can be embedded for forward compatibility.
type UnimplementedClaimRiskServiceServer struct{}

func (UnimplementedClaimRiskServiceServer) ScoreClaim(context.Context, *ScoreClaimRequest) (*AssessmentReply, error) {
	return nil, status.Error(codes.Unimplemented, "method ScoreClaim not implemented")
}

func (UnimplementedClaimRiskServiceServer) GetAssessment(context.Context, *GetAssessmentRequest) (*AssessmentReply, error) {
	return nil, status.Error(codes.Unimplemented, "method GetAssessment not implemented")
}

// RegisterClaimRiskServiceServer registers srv with s.
func RegisterClaimRiskServiceServer(s grpclib.ServiceRegistrar, srv ClaimRiskServiceServer) {
	s.RegisterService(&claimRiskServiceDesc, srv)
}

var claimRiskServiceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ClaimRiskServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "ScoreClaim", Handler: scoreClaimHandler},
		{MethodName: "GetAssessment", Handler: getAssessmentHandler},
	},
	Streams: []grpclib.StreamDesc{},
}

func scoreClaimHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	in := new(ScoreClaimRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClaimRiskServiceServer).ScoreClaim(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: ScoreClaimMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(ClaimRiskServiceServer).ScoreClaim(ctx, req.(*ScoreClaimRequest))
	})
}

func getAssessmentHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	in := new(GetAssessmentRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClaimRiskServiceServer).GetAssessment(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: GetAssessmentMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(ClaimRiskServiceServer).GetAssessment(ctx, req.(*GetAssessmentRequest))
	})
}

// ClaimRiskServiceClient is the client API for ClaimRiskService.
type ClaimRiskServiceClient struct {
	cc grpclib.ClientConnInterface
}

// NewClaimRiskServiceClient wraps cc. Calls use the JSON codec.
func NewClaimRiskServiceClient(cc grpclib.ClientConnInterface) *ClaimRiskServiceClient {
	return &ClaimRiskServiceClient{cc: cc}
}

func (c *ClaimRiskServiceClient) ScoreClaim(ctx context.Context, in *ScoreClaimRequest, opts ...grpclib.CallOption) (*AssessmentReply, error) {
	out := new(AssessmentReply)
	opts = append([]grpclib.CallOption{grpclib.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, ScoreClaimMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ClaimRiskServiceClient) GetAssessment(ctx context.Context, in *GetAssessmentRequest, opts ...grpclib.CallOption) (*AssessmentReply, error) {
	out := new(AssessmentReply)
	opts = append([]grpclib.CallOption{grpclib.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, GetAssessmentMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
