package provisioning

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/dnscache"
)

// NewHTTPClient строит HTTP-клиент для обращений к серверам провижининга.
// Если resolver задан, адреса разрешаются через кеш DNS; обновлять кеш
// (resolver.Refresh) должен владелец resolver.
func NewHTTPClient(timeout time.Duration, resolver *dnscache.Resolver) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if resolver != nil {
		transport.DialContext = cachedDialer(resolver)
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

func cachedDialer(resolver *dnscache.Resolver) func(ctx context.Context, network, address string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	return func(ctx context.Context, network, address string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(address)
		if err != nil {
			return nil, err
		}
		if net.ParseIP(host) != nil {
			return dialer.DialContext(ctx, network, address)
		}

		ips, err := resolver.LookupHost(ctx, host)
		if err != nil {
			return nil, err
		}
		if len(ips) == 0 {
			return nil, errors.New("provisioning: no addresses for " + host)
		}

		var lastErr error
		for _, ip := range ips {
			conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
			if err == nil {
				return conn, nil
			}
			lastErr = err
		}
		return nil, lastErr
	}
}
