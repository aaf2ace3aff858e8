package driven

import (
	"context"

	"github.com/custodia-labs/docledger/internal/core/domain"
)

// FileInspector checks source file references against the object store.
type FileInspector interface {
	// Inspect returns metadata for ref, or domain.ErrNotFound when the object is missing.
	Inspect(ctx context.Context, ref string) (*domain.FileInfo, error)
}

// ActorVerifier resolves a bearer token to the acting user.
type ActorVerifier interface {
	// VerifyActor returns the actor name, or domain.ErrUnauthorized.
	VerifyActor(token string) (string, error)
}
