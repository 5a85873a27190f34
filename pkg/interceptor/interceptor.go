package interceptor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/jecitDev/jec-salesgrid/pkg/crm"
	"github.com/jecitDev/jec-salesgrid/pkg/logger"
	"github.com/jecitDev/jec-salesgrid/pkg/orchestrator"
)

// Metadata keys read from incoming calls
const (
	UserNameKey  = "user-name"
	UserRoleKey  = "user-role"
	RequestIDKey = "x-request-id"
)

// ErrMissingActor is returned when a call carries no usable identity
var ErrMissingActor = errors.New("missing actor metadata")

// Config holds configuration for the actor interceptors
type Config struct {
	Logger          *zap.Logger
	ActorExtractor  ActorExtractor
	ExcludedMethods map[string]bool // full method names that run without an actor
}

// ActorExtractor defines how to extract the acting user from context
type ActorExtractor interface {
	ExtractActor(ctx context.Context) (crm.Actor, error)
}

// MetadataActorExtractor reads the actor from the user-name and user-role headers
type MetadataActorExtractor struct{}

func (MetadataActorExtractor) ExtractActor(ctx context.Context) (crm.Actor, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return crm.Actor{}, ErrMissingActor
	}

	name := first(md, UserNameKey)
	if name == "" {
		return crm.Actor{}, fmt.Errorf("%w: %s", ErrMissingActor, UserNameKey)
	}
	role, ok := crm.ParseRole(first(md, UserRoleKey))
	if !ok {
		return crm.Actor{}, fmt.Errorf("%w: unknown %s %q", ErrMissingActor, UserRoleKey, first(md, UserRoleKey))
	}
	return crm.Actor{Name: name, Role: role}, nil
}

func first(md metadata.MD, key string) string {
	if values := md.Get(key); len(values) > 0 {
		return strings.TrimSpace(values[0])
	}
	return ""
}

func (cfg *Config) setDefaults() {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.ActorExtractor == nil {
		cfg.ActorExtractor = MetadataActorExtractor{}
	}
}

// UnaryServerInterceptor puts the caller's actor and a request scoped logger
// into the context and translates engine errors into gRPC status errors
func UnaryServerInterceptor(cfg Config) grpc.UnaryServerInterceptor {
	cfg.setDefaults()

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		ctx, log, err := cfg.prepare(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}

		startTime := time.Now()
		resp, err := handler(ctx, req)
		duration := time.Since(startTime)

		if err != nil {
			st := ToStatus(err)
			log.Info("call failed",
				zap.Duration("duration", duration),
				zap.String("grpc_code", st.Code().String()),
				zap.Error(err))
			return resp, st.Err()
		}
		log.Debug("call completed", zap.Duration("duration", duration))
		return resp, nil
	}
}

// StreamServerInterceptor does for streams what UnaryServerInterceptor does for unary calls
func StreamServerInterceptor(cfg Config) grpc.StreamServerInterceptor {
	cfg.setDefaults()

	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, log, err := cfg.prepare(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}
		if err := handler(srv, &wrappedStream{ServerStream: ss, ctx: ctx}); err != nil {
			st := ToStatus(err)
			log.Info("stream failed", zap.String("grpc_code", st.Code().String()), zap.Error(err))
			return st.Err()
		}
		return nil
	}
}

type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context {
	return w.ctx
}

func (cfg *Config) prepare(ctx context.Context, fullMethod string) (context.Context, *zap.Logger, error) {
	// Format: /salesgrid.CompanyService/UpdateCompany
	service, method := splitMethod(fullMethod)

	requestID := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		requestID = first(md, RequestIDKey)
	}
	if requestID == "" {
		requestID = uuid.New().String()
	}

	log := cfg.Logger.With(
		zap.String("request_id", requestID),
		zap.String("service", service),
		zap.String("method", method),
	)

	if !cfg.ExcludedMethods[fullMethod] {
		actor, err := cfg.ActorExtractor.ExtractActor(ctx)
		if err != nil {
			log.Info("rejected call without actor", zap.Error(err))
			return nil, nil, status.Error(codes.Unauthenticated, err.Error())
		}
		ctx = crm.ContextWithActor(ctx, actor)
		log = log.With(zap.String("actor", actor.Name), zap.String("role", string(actor.Role)))
	}
	return logger.WithContext(ctx, log), log, nil
}

func splitMethod(fullMethod string) (service, method string) {
	parts := strings.Split(fullMethod, "/")
	if len(parts) < 3 {
		return "", fullMethod
	}
	return parts[1], parts[2]
}

// Code maps an engine error onto a gRPC code
func Code(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, orchestrator.ErrValidationFailed):
		return codes.InvalidArgument
	case errors.Is(err, orchestrator.ErrPermissionDenied), errors.Is(err, orchestrator.ErrUnauthorized):
		return codes.PermissionDenied
	case errors.Is(err, orchestrator.ErrNotFound):
		return codes.NotFound
	case errors.Is(err, orchestrator.ErrUnsupportedField):
		return codes.FailedPrecondition
	case errors.Is(err, orchestrator.ErrRemotePersistenceFailed):
		return codes.Unavailable
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	}
	return codes.Internal
}

// ToStatus converts err to a gRPC status. Errors that already are statuses are kept.
func ToStatus(err error) *status.Status {
	if st, ok := status.FromError(err); ok {
		return st
	}
	return status.New(Code(err), err.Error())
}
