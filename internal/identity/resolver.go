// Package identity resolves the authenticated subject for a request.
// Authentication itself lives upstream (an API gateway in production);
// this layer only extracts and validates the subject identifier.
package identity

import (
	"context"
	"errors"
	"strings"
)

var ErrUnauthorized = errors.New("unauthorized")

type Resolver interface {
	// Resolve maps a bearer credential to a subject id. An empty or
	// unknown credential is ErrUnauthorized.
	Resolve(ctx context.Context, bearer string) (string, error)
}

// bearerResolver trusts the bearer token as the subject id, the
// contract with the gateway that already verified it. In development,
// requests without a token fall back to a configured subject.
type bearerResolver struct {
	devSubjectID string
}

func NewBearerResolver(devSubjectID string) Resolver {
	return &bearerResolver{devSubjectID: devSubjectID}
}

func (r *bearerResolver) Resolve(_ context.Context, bearer string) (string, error) {
	subject := strings.TrimSpace(bearer)
	if subject == "" {
		subject = r.devSubjectID
	}
	if subject == "" {
		return "", ErrUnauthorized
	}
	return subject, nil
}
