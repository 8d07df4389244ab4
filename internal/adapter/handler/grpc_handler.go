package handler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/rl1809/vote-score/internal/core/domain"
	"github.com/rl1809/vote-score/internal/core/service"
)

var _ ScoreServiceServer = (*GRPCHandler)(nil)

type GRPCHandler struct {
	scoreService *service.ScoreService
	logger       *zap.SugaredLogger
}

func NewGRPCHandler(scoreService *service.ScoreService, logger *zap.SugaredLogger) *GRPCHandler {
	return &GRPCHandler{scoreService: scoreService, logger: logger}
}

func (h *GRPCHandler) Upvote(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.Int64Value, error) {
	return h.reply(h.scoreService.Upvote(ctx))
}

func (h *GRPCHandler) Downvote(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.Int64Value, error) {
	return h.reply(h.scoreService.Downvote(ctx))
}

func (h *GRPCHandler) GetScore(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.Int64Value, error) {
	return h.reply(h.scoreService.Score(ctx))
}

func (h *GRPCHandler) reply(score domain.Score, err error) (*wrapperspb.Int64Value, error) {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, status.FromContextError(err).Err()
		}
		h.logger.Errorf("score service: %v", err)
		return nil, status.Error(codes.Unavailable, "score store unavailable")
	}
	return wrapperspb.Int64(score.Value), nil
}

// UnaryLogInterceptor logs every unary call with its status code and duration.
func UnaryLogInterceptor(logger *zap.SugaredLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		logger.Debugw("rpc",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration", time.Since(start),
		)
		return resp, err
	}
}
