// Package server реализует gRPC-сервис проверки токенов панели.
//
// TokenServer разбирает JWT, загружает аккаунт и возвращает его текущее
// состояние, чтобы внутренние сервисы не хранили секрет подписи.
// Сообщения описаны well-known типами protobuf, поэтому сгенерированный код
// не нужен.
package server

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/magabrotheeeer/reseller-panel/internal/lib/jwt"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/sl"
	"github.com/magabrotheeeer/reseller-panel/internal/models"
	"github.com/magabrotheeeer/reseller-panel/internal/storage"
)

const (
	// ServiceName — полное имя gRPC-сервиса.
	ServiceName = "reseller.panel.v1.TokenService"
	// ValidateMethod — полное имя метода проверки токена.
	ValidateMethod = "/" + ServiceName + "/Validate"
)

// Поля ответа Validate.
const (
	FieldAccountID          = "account_id"
	FieldEmail              = "email"
	FieldRole               = "role"
	FieldCredits            = "credits"
	FieldSubscriptionStatus = "subscription_status"
)

// TokenParser разбирает JWT.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// AccountSource загружает аккаунт по идентификатору.
type AccountSource interface {
	Get(ctx context.Context, id string) (*models.Account, error)
}

// TokenServiceServer — серверная сторона сервиса.
type TokenServiceServer interface {
	Validate(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
}

// TokenServer реализует TokenServiceServer.
type TokenServer struct {
	parser   TokenParser
	accounts AccountSource
	log      *slog.Logger
}

// NewTokenServer создаёт TokenServer.
func NewTokenServer(parser TokenParser, accounts AccountSource, logger *slog.Logger) *TokenServer {
	return &TokenServer{
		parser:   parser,
		accounts: accounts,
		log:      logger,
	}
}

// Validate проверяет токен и возвращает состояние аккаунта.
func (s *TokenServer) Validate(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	const op = "grpc.server.Validate"
	log := s.log.With(sl.Op(op))

	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "token is required")
	}
	claims, err := s.parser.ParseToken(req.GetValue())
	if err != nil {
		log.Warn("invalid token", sl.Err(err))
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	acc, err := s.accounts.Get(ctx, claims.AccountID())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "account not found")
		}
		log.Error("failed to load account", sl.Err(err))
		return nil, status.Error(codes.Internal, "internal error")
	}

	res, err := structpb.NewStruct(map[string]any{
		FieldAccountID:          acc.ID,
		FieldEmail:              acc.Email,
		FieldRole:               string(acc.Role),
		FieldCredits:            float64(acc.Credits),
		FieldSubscriptionStatus: string(acc.SubscriptionStatus),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return res, nil
}

func validateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TokenServiceServer).Validate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ValidateMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TokenServiceServer).Validate(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TokenServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Validate", Handler: validateHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "reseller/panel/v1/token.proto",
}

// Register регистрирует сервис на gRPC-сервере.
func Register(s grpc.ServiceRegistrar, srv TokenServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

// LoggingInterceptor пишет в лог каждый unary-вызов с его кодом завершения.
func LoggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		log.Info("grpc call",
			slog.String("method", info.FullMethod),
			slog.String("code", status.Code(err).String()),
		)
		return resp, err
	}
}
