package domain

import "context"

// Service verifies bearer tokens issued by the identity service.
type Service interface {
	Verify(ctx context.Context, rawToken string) (*Principal, error)
}
