// Package prefs stores small per-user UI preferences, such as whether the
// welcome tour has been dismissed. Clients read and write flags through the
// API instead of keeping them in ambient browser storage.
package prefs

import (
	"context"
	"fmt"

	redisv9 "github.com/redis/go-redis/v9"
)

// Known preference keys.
const (
	KeyWelcomeDismissed  = "welcome_dismissed"
	KeyTutorialDismissed = "tutorial_dismissed"
)

// ValidKey reports whether key is a preference the API accepts.
func ValidKey(key string) bool {
	switch key {
	case KeyWelcomeDismissed, KeyTutorialDismissed:
		return true
	}
	return false
}

type Store struct {
	client *redisv9.Client
}

func NewStore(client *redisv9.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Get(ctx context.Context, userID uint, key string) (string, bool, error) {
	raw, err := s.client.Get(ctx, s.prefKey(userID, key)).Result()
	if err == redisv9.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get preference failed: %w", err)
	}
	return raw, true, nil
}

func (s *Store) Set(ctx context.Context, userID uint, key, value string) error {
	// Preferences persist until explicitly cleared.
	if err := s.client.Set(ctx, s.prefKey(userID, key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set preference failed: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, userID uint, key string) error {
	if err := s.client.Del(ctx, s.prefKey(userID, key)).Err(); err != nil {
		return fmt.Errorf("redis delete preference failed: %w", err)
	}
	return nil
}

func (s *Store) prefKey(userID uint, key string) string {
	return fmt.Sprintf("prefs:%d:%s", userID, key)
}
