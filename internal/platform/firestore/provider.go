// Package firestore owns the Firestore client used by the preference store.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/hanko-field/pdp/internal/platform/config"
)

const (
	defaultDialTimeout = 10 * time.Second
	emulatorEnv        = "FIRESTORE_EMULATOR_HOST"
	projectEnv         = "GOOGLE_CLOUD_PROJECT"
)

var (
	ErrProviderClosed = errors.New("firestore: provider is closed")
	errNoProject      = errors.New("firestore: project id is required")
)

// Provider creates the client on first use so the service can start while Firestore is unreachable.
// A failed attempt is retried by the next caller.
type Provider struct {
	projectID   string
	emulator    string
	credentials string
	dialTimeout time.Duration
	extra       []option.ClientOption

	mu     sync.Mutex
	client *firestore.Client
	closed bool
}

type ProviderOption func(*Provider)

func WithDialTimeout(d time.Duration) ProviderOption {
	return func(p *Provider) {
		if d > 0 {
			p.dialTimeout = d
		}
	}
}

// WithClientOptions adds options to every client the provider creates.
func WithClientOptions(opts ...option.ClientOption) ProviderOption {
	return func(p *Provider) {
		p.extra = append(p.extra, opts...)
	}
}

// NewProvider resolves the project and emulator from cfg, falling back to the standard Google
// environment variables.
func NewProvider(cfg config.FirestoreConfig, opts ...ProviderOption) *Provider {
	p := &Provider{
		projectID:   firstSet(cfg.ProjectID, os.Getenv(projectEnv)),
		emulator:    firstSet(cfg.EmulatorHost, os.Getenv(emulatorEnv)),
		credentials: strings.TrimSpace(cfg.CredentialsFile),
		dialTimeout: defaultDialTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Client returns the shared client.
func (p *Provider) Client(ctx context.Context) (*firestore.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.closed:
		return nil, ErrProviderClosed
	case p.client != nil:
		return p.client, nil
	case p.projectID == "":
		return nil, errNoProject
	}

	dialCtx, cancel := context.WithTimeout(ctx, p.dialTimeout)
	defer cancel()
	client, err := firestore.NewClient(dialCtx, p.projectID, p.clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("firestore: create client: %w", err)
	}
	p.client = client
	return client, nil
}

func (p *Provider) clientOptions() []option.ClientOption {
	opts := append([]option.ClientOption(nil), p.extra...)
	switch {
	case p.emulator != "":
		// The client library only honours the emulator through the environment.
		if os.Getenv(emulatorEnv) == "" {
			_ = os.Setenv(emulatorEnv, p.emulator)
		}
		opts = append(opts,
			option.WithEndpoint(p.emulator),
			option.WithoutAuthentication(),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	case p.credentials != "":
		opts = append(opts, option.WithCredentialsFile(p.credentials))
	}
	return opts
}

// Close releases the client and refuses further use. It gives up waiting when ctx ends.
func (p *Provider) Close(ctx context.Context) error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	client := p.client
	p.client, p.closed = nil, true
	p.mu.Unlock()
	if client == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- client.Close() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
