package authority

import (
	"context"
	"fmt"
	"strings"

	"github.com/cueclub/league-night/internal/domain/user"
	"github.com/cueclub/league-night/internal/usecase"
)

// StaticVerifier accepts any non-empty bearer token and treats it as the
// caller's user id. It exists for local development and tests, where the
// captains log in as plain ids like "captain-home". Production deployments
// use the league hub's token introspection instead.
type StaticVerifier struct{}

func NewStaticVerifier() *StaticVerifier {
	return &StaticVerifier{}
}

func (StaticVerifier) VerifyAccessToken(_ context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}
	return user.Principal{UserID: token}, nil
}
