package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/quillhub/quillhub/internal/domain/model"
	"github.com/quillhub/quillhub/internal/domain/port/driven"
)

// SupergroupService manages the registry of trusted federation peers.
type SupergroupService struct {
	peers  driven.SupergroupStore
	logger *slog.Logger
}

func NewSupergroupService(peers driven.SupergroupStore, logger *slog.Logger) *SupergroupService {
	return &SupergroupService{peers: peers, logger: logger}
}

// Register adds a peer and mints the bearer token it will present on
// inbound requests. The token is returned once, here.
func (s *SupergroupService) Register(ctx context.Context, name, tag, baseURL string) (*model.Supergroup, error) {
	token, err := mintToken()
	if err != nil {
		return nil, fmt.Errorf("minting peer token: %w", err)
	}

	peer := &model.Supergroup{
		Name:      strings.TrimSpace(name),
		Tag:       strings.ToLower(strings.TrimSpace(tag)),
		BaseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Token:     token,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.peers.Add(ctx, peer); err != nil {
		return nil, fmt.Errorf("registering peer %s: %w", peer.Tag, err)
	}
	s.logger.Info("federation peer registered",
		slog.String("tag", peer.Tag),
		slog.String("baseURL", peer.BaseURL))
	return peer, nil
}

// Deregister removes a peer; its token stops authenticating immediately.
func (s *SupergroupService) Deregister(ctx context.Context, id int64) error {
	if err := s.peers.Remove(ctx, id); err != nil {
		return fmt.Errorf("removing peer %d: %w", id, err)
	}
	s.logger.Info("federation peer removed", slog.Int64("peer", id))
	return nil
}

// List returns every registered peer.
func (s *SupergroupService) List(ctx context.Context) ([]model.Supergroup, error) {
	return s.peers.ListAll(ctx)
}

// Authenticate resolves an inbound bearer token to its peer, or nil when the
// token is unknown.
func (s *SupergroupService) Authenticate(ctx context.Context, token string) (*model.Supergroup, error) {
	if token == "" {
		return nil, nil
	}
	peer, err := s.peers.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("resolving peer token: %w", err)
	}
	return peer, nil
}

func mintToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
