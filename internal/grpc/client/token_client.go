// Package client — клиент gRPC-сервиса проверки токенов.
package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/magabrotheeeer/reseller-panel/internal/grpc/server"
)

// Introspection — состояние аккаунта, которому принадлежит токен.
type Introspection struct {
	AccountID          string
	Email              string
	Role               string
	Credits            int64
	SubscriptionStatus string
}

// TokenClient вызывает TokenService.
type TokenClient struct {
	conn *grpc.ClientConn
}

// NewTokenClient создаёт клиента для addr. Соединение устанавливается лениво.
func NewTokenClient(addr string, opts ...grpc.DialOption) (*TokenClient, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc.client.NewTokenClient: %w", err)
	}
	return &TokenClient{conn: conn}, nil
}

// Close закрывает соединение.
func (c *TokenClient) Close() error {
	return c.conn.Close()
}

// Validate проверяет токен на сервере.
func (c *TokenClient) Validate(ctx context.Context, token string) (*Introspection, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, server.ValidateMethod, wrapperspb.String(token), out); err != nil {
		return nil, err
	}
	f := out.GetFields()
	return &Introspection{
		AccountID:          f[server.FieldAccountID].GetStringValue(),
		Email:              f[server.FieldEmail].GetStringValue(),
		Role:               f[server.FieldRole].GetStringValue(),
		Credits:            int64(f[server.FieldCredits].GetNumberValue()),
		SubscriptionStatus: f[server.FieldSubscriptionStatus].GetStringValue(),
	}, nil
}
