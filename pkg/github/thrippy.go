package github

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gogo/protobuf/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/tzrikka/bcdreview/internal/cache"
	"github.com/tzrikka/bcdreview/internal/logger"
	thrippypb "github.com/tzrikka/thrippy-api/thrippy/v1"
)

const (
	grpcTimeout = 3 * time.Second

	DefaultThrippyTokenKey = "api_token"
	thrippyTokenTTL        = 5 * time.Minute
)

// ThrippyConfig identifies a Thrippy link which holds GitHub API credentials,
// and the gRPC connection details to retrieve them from the Thrippy server.
type ThrippyConfig struct {
	GRPCAddress        string
	ClientCert         string
	ClientKey          string
	ServerCACert       string
	ServerNameOverride string
	Insecure           bool

	LinkID   string
	TokenKey string
}

// ThrippyTokenSource is a [TokenSource] which retrieves GitHub API tokens
// from a Thrippy link, and caches them for a few minutes to allow rotation.
type ThrippyTokenSource struct {
	cfg    ThrippyConfig
	tokens *cache.Cache[string]
}

func NewThrippyTokenSource(cfg ThrippyConfig) *ThrippyTokenSource {
	if cfg.TokenKey == "" {
		cfg.TokenKey = DefaultThrippyTokenKey
	}
	return &ThrippyTokenSource{cfg: cfg, tokens: cache.New[string](thrippyTokenTTL, cache.NoCleanup)}
}

func (t *ThrippyTokenSource) Token(ctx context.Context) (string, error) {
	if token, ok := t.tokens.Get(t.cfg.LinkID); ok {
		return token, nil
	}

	creds, err := t.cfg.secureCreds()
	if err != nil {
		return "", err
	}

	conn, err := grpc.NewClient(t.cfg.GRPCAddress, grpc.WithTransportCredentials(creds))
	if err != nil {
		return "", err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, grpcTimeout)
	defer cancel()

	req := thrippypb.GetCredentialsRequest_builder{LinkId: proto.String(t.cfg.LinkID)}.Build()
	resp, err := thrippypb.NewThrippyServiceClient(conn).GetCredentials(ctx, req)
	if err != nil {
		logger.FromContext(ctx).Error("failed to get Thrippy link credentials",
			slog.Any("error", err), slog.String("link_id", t.cfg.LinkID))
		return "", err
	}

	token := resp.GetCredentials()[t.cfg.TokenKey]
	if token == "" {
		return "", fmt.Errorf("missing %q credential in Thrippy link %q", t.cfg.TokenKey, t.cfg.LinkID)
	}

	t.tokens.Set(t.cfg.LinkID, token, cache.DefaultExpiration)
	return token, nil
}

// secureCreds initializes gRPC client credentials using TLS or mTLS, based on CLI flags.
func (c ThrippyConfig) secureCreds() (credentials.TransportCredentials, error) {
	if c.Insecure {
		return insecure.NewCredentials(), nil
	}

	// Both TLS and mTLS.
	caPath := c.ServerCACert
	nameOverride := c.ServerNameOverride
	// Only mTLS.
	certPath := c.ClientCert
	keyPath := c.ClientKey

	// Using mTLS requires the client's X.509 PEM-encoded public cert
	// and private key. If one of them is missing it's an error.
	if certPath == "" && keyPath != "" {
		return nil, errors.New("missing client public cert file for gRPC client with mTLS")
	}
	if certPath != "" && keyPath == "" {
		return nil, errors.New("missing client private key file for gRPC client with mTLS")
	}

	// If both of them are missing, we use TLS.
	if certPath == "" && keyPath == "" {
		creds, err := credentials.NewClientTLSFromFile(caPath, nameOverride)
		if err != nil {
			return nil, errors.New("error in server CA cert for gRPC client with TLS: " + err.Error())
		}
		return creds, nil
	}

	// If all 3 are specified, we use mTLS.
	msg := "server CA cert file for gRPC client with mTLS"
	ca := x509.NewCertPool()
	pem, err := os.ReadFile(caPath) //gosec:disable G304 -- specified by admin by design
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", msg, err)
	}
	if ok := ca.AppendCertsFromPEM(pem); !ok {
		return nil, fmt.Errorf("failed to parse %s", msg)
	}

	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load client PEM key pair for gRPC client with mTLS: %w", err)
	}

	return credentials.NewTLS(&tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      ca,
		ServerName:   nameOverride,
		MinVersion:   tls.VersionTLS13,
	}), nil
}
