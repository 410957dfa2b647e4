package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/codes"

	"github.com/peoplehub/hr-identity/internal/domain"
	"github.com/peoplehub/hr-identity/internal/repository"
	"github.com/peoplehub/hr-identity/pkg/telemetry"
)

// ErrKeyLookup indicates the key registry was unreachable or inconsistent
// while resolving an allow-listed secret. Distinct from "key not
// recognized", which never reaches this service.
var ErrKeyLookup = errors.New("api key lookup failed")

// APIKeyService resolves pre-shared API keys to their enabled state and
// granted rights.
type APIKeyService interface {
	// Authorize performs the authoritative registry lookup for a secret the
	// caller has already confirmed against the accepted-key allow-list.
	Authorize(ctx context.Context, secret string) (*domain.APIKey, error)
}

type apiKeyService struct {
	keyRepo repository.APIKeyRepository
}

// NewAPIKeyService creates a new APIKeyService.
func NewAPIKeyService(keyRepo repository.APIKeyRepository) APIKeyService {
	return &apiKeyService{keyRepo: keyRepo}
}

// Authorize looks up the key record. Read-only; no side effects.
func (s *apiKeyService) Authorize(ctx context.Context, secret string) (*domain.APIKey, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.apikey.authorize")
	defer span.End()

	key, err := s.keyRepo.GetBySecret(ctx, secret)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrKeyLookup, err)
	}
	if key == nil {
		// Allow-listed but absent from the registry: the two sources of
		// truth disagree, which is a server fault, not a client one.
		span.SetStatus(codes.Error, "accepted key missing from registry")
		return nil, fmt.Errorf("%w: accepted key missing from registry", ErrKeyLookup)
	}

	span.SetStatus(codes.Ok, "")
	return key, nil
}
