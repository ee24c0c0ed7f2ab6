package kernel

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/pkg/testkit"
)

// roleTokens registers one user per role on first use and logs it in.
func roleTokens(s *stack) testkit.TokenSource {
	var mu sync.Mutex
	cache := map[string]string{}
	return func(t *testing.T, role string) string {
		mu.Lock()
		defer mu.Unlock()
		if tok, ok := cache[role]; ok {
			return tok
		}
		ctx := context.Background()
		user, err := s.app.Auth.Register(ctx, services.RegisterInput{
			Email:    strings.ToLower(role) + "@scenarios.test",
			Password: "secret123",
			Role:     role,
		})
		require.NoError(t, err)
		pair, err := s.app.Auth.Login(ctx, user)
		require.NoError(t, err)
		cache[role] = pair.AccessToken
		return pair.AccessToken
	}
}

func TestScenarios(t *testing.T) {
	s := newStack(t)
	k, err := NewHTTP(s.app)
	require.NoError(t, err)

	testkit.RunDir(t, k.Handler(), "testdata/scenarios", testkit.WithTokens(roleTokens(s)))
}
