package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
	"github.com/Simpactsoft/now-core/internal/domain/ports"
)

const (
	// keySecretBytes is the number of random bytes in a key (64 hex chars).
	keySecretBytes = 32
	// keyPreviewLen is how much of a raw key is kept for display.
	keyPreviewLen = 20
	// bootstrapKeyName names the admin key created at server start.
	bootstrapKeyName = "bootstrap"
)

// APIKeyService issues and checks bearer credentials.
type APIKeyService struct {
	repo    ports.APIKeyRepository
	prefix  string
	auditor *Auditor
	logger  *slog.Logger
}

// NewAPIKeyService creates a new APIKeyService. prefix marks every raw key,
// e.g. "nw_live_sk_".
func NewAPIKeyService(repo ports.APIKeyRepository, prefix string, auditor *Auditor, logger *slog.Logger) *APIKeyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIKeyService{
		repo:    repo,
		prefix:  prefix,
		auditor: auditor,
		logger:  logger,
	}
}

// Create issues a new key. The raw key is returned once and never stored.
func (s *APIKeyService) Create(ctx context.Context, name string, scopes []string) (*entities.APIKey, string, error) {
	name = strings.TrimSpace(name)
	verr := &entities.ValidationError{}
	if name == "" {
		verr.Add("name", entities.ErrMissingRequiredField, "is required")
	}

	if len(scopes) == 0 {
		scopes = entities.DefaultScopes
	}
	var granted entities.StringList
	for _, sc := range scopes {
		sc = strings.ToLower(strings.TrimSpace(sc))
		if !entities.IsValidScope(sc) {
			verr.Add("scopes", entities.ErrInvalidValue, fmt.Sprintf("invalid scope %q (valid: %s)", sc, strings.Join(entities.ValidScopes, ", ")))
			continue
		}
		if !granted.Contains(sc) {
			granted = append(granted, sc)
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, "", err
	}

	secret := make([]byte, keySecretBytes)
	if _, err := rand.Read(secret); err != nil {
		return nil, "", fmt.Errorf("generating key: %w", err)
	}
	raw := s.prefix + hex.EncodeToString(secret)

	key, err := s.store(ctx, name, granted, raw)
	if err != nil {
		return nil, "", err
	}
	return key, raw, nil
}

// Bootstrap makes sure an admin key exists for a fresh deployment. A
// configured raw key is registered once and reused on later starts; with an
// empty raw a new key is generated and returned so it can be shown once.
func (s *APIKeyService) Bootstrap(ctx context.Context, raw string) (*entities.APIKey, string, error) {
	if raw == "" {
		return s.Create(ctx, bootstrapKeyName, []string{entities.ScopeAdmin})
	}
	if !s.wellFormed(raw) {
		verr := &entities.ValidationError{}
		verr.Add("bootstrap_key", entities.ErrInvalidValue,
			fmt.Sprintf("must be %q followed by %d hex characters", s.prefix, keySecretBytes*2))
		return nil, "", verr
	}

	existing, err := s.repo.FindAPIKeyByHash(ctx, hashKey(raw))
	if err != nil {
		return nil, "", fmt.Errorf("finding api key: %w", err)
	}
	if existing != nil {
		return existing, "", nil
	}

	key, err := s.store(ctx, bootstrapKeyName, entities.StringList{entities.ScopeAdmin}, raw)
	if err != nil {
		return nil, "", err
	}
	return key, "", nil
}

func (s *APIKeyService) store(ctx context.Context, name string, scopes entities.StringList, raw string) (*entities.APIKey, error) {
	key := &entities.APIKey{
		ID:        generateID(),
		Name:      name,
		KeyHash:   hashKey(raw),
		KeyPrefix: raw[:min(keyPreviewLen, len(raw))],
		Scopes:    scopes,
		CreatedAt: timeNow(),
	}
	if err := s.repo.SaveAPIKey(ctx, key); err != nil {
		return nil, fmt.Errorf("saving api key: %w", err)
	}

	s.auditor.Record(ctx, entities.ActionAPIKeyCreated, key.ID, map[string]any{
		"name":   name,
		"scopes": []string(scopes),
	})
	return key, nil
}

func (s *APIKeyService) wellFormed(raw string) bool {
	secret, ok := strings.CutPrefix(raw, s.prefix)
	if !ok || len(secret) != keySecretBytes*2 {
		return false
	}
	_, err := hex.DecodeString(secret)
	return err == nil
}

// Authenticate resolves a raw bearer token to an active key and records its
// use. Every rejection wraps ErrUnauthorized.
func (s *APIKeyService) Authenticate(ctx context.Context, raw string) (*entities.APIKey, error) {
	if !s.wellFormed(raw) {
		return nil, fmt.Errorf("malformed api key: %w", entities.ErrUnauthorized)
	}

	key, err := s.repo.FindAPIKeyByHash(ctx, hashKey(raw))
	if err != nil {
		return nil, fmt.Errorf("finding api key: %w", err)
	}
	if key == nil {
		return nil, fmt.Errorf("unknown api key: %w", entities.ErrUnauthorized)
	}
	if !key.IsActive() {
		return nil, fmt.Errorf("api key %s revoked: %w", key.ID, entities.ErrUnauthorized)
	}

	now := timeNow()
	if err := s.repo.TouchAPIKey(ctx, key.ID, now); err != nil {
		s.logger.Warn("recording api key use failed", "key_id", key.ID, "error", err)
	} else {
		key.LastUsedAt = &now
	}
	return key, nil
}

// Authorize checks that key grants scope.
func (s *APIKeyService) Authorize(key *entities.APIKey, scope string) error {
	if key == nil || !key.HasScope(scope) {
		return fmt.Errorf("missing %s scope: %w", scope, entities.ErrForbidden)
	}
	return nil
}

// List returns every key, revoked ones included.
func (s *APIKeyService) List(ctx context.Context) ([]entities.APIKey, error) {
	keys, err := s.repo.ListAPIKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing api keys: %w", err)
	}
	return keys, nil
}

// Revoke disables a key. Revoking twice keeps the first revocation time.
func (s *APIKeyService) Revoke(ctx context.Context, id string) (*entities.APIKey, error) {
	key, err := s.repo.FindAPIKeyByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding api key: %w", err)
	}
	if key == nil {
		return nil, fmt.Errorf("api key %s: %w", id, entities.ErrNotFound)
	}
	if !key.IsActive() {
		return key, nil
	}

	if err := s.repo.RevokeAPIKey(ctx, key.ID, timeNow()); err != nil {
		return nil, fmt.Errorf("revoking api key: %w", err)
	}
	key, err = s.repo.FindAPIKeyByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding api key: %w", err)
	}
	if key == nil {
		return nil, fmt.Errorf("api key %s: %w", id, entities.ErrNotFound)
	}

	s.auditor.Record(ctx, entities.ActionAPIKeyRevoked, key.ID, map[string]any{"name": key.Name})
	return key, nil
}

func hashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
