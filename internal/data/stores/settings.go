package stores

import (
	"context"
	"fmt"
	"slices"

	"github.com/colonyops/goodvibes/internal/core/kv"
)

// Setting keys persisted in the "settings" KV namespace.
const (
	SettingRateLimitEnabled  = "tag_scan_rate_limit_enabled"
	SettingScanAgentSessions = "tag_scan_agent_sessions"
)

// SettingKeys lists every user-editable setting.
var SettingKeys = []string{SettingRateLimitEnabled, SettingScanAgentSessions}

// Settings exposes the scanner toggles. Values stored in the KV store win
// over the defaults supplied at construction (normally from config).
type Settings struct {
	values   *kv.TypedKV[bool]
	defaults map[string]bool
}

// NewSettings creates a Settings backed by store.
func NewSettings(store kv.KV, rateLimitEnabled, scanAgentSessions bool) *Settings {
	return &Settings{
		values: kv.Scoped[bool](store, "settings"),
		defaults: map[string]bool{
			SettingRateLimitEnabled:  rateLimitEnabled,
			SettingScanAgentSessions: scanAgentSessions,
		},
	}
}

// RateLimitEnabled reports whether the scanner must hold a token per batch.
func (s *Settings) RateLimitEnabled(ctx context.Context) (bool, error) {
	return s.Get(ctx, SettingRateLimitEnabled)
}

// ScanAgentSessions reports whether agent- sessions are queued by bulk scans.
func (s *Settings) ScanAgentSessions(ctx context.Context) (bool, error) {
	return s.Get(ctx, SettingScanAgentSessions)
}

// Get returns a setting by key.
func (s *Settings) Get(ctx context.Context, key string) (bool, error) {
	def, ok := s.defaults[key]
	if !ok {
		return false, unknownSetting(key)
	}
	v, err := s.values.GetOr(ctx, key, def)
	if err != nil {
		return def, fmt.Errorf("read setting %s: %w", key, err)
	}
	return v, nil
}

// Set persists a setting.
func (s *Settings) Set(ctx context.Context, key string, value bool) error {
	if _, ok := s.defaults[key]; !ok {
		return unknownSetting(key)
	}
	if err := s.values.Set(ctx, key, value); err != nil {
		return fmt.Errorf("write setting %s: %w", key, err)
	}
	return nil
}

// Reset removes a stored override so the default applies again.
func (s *Settings) Reset(ctx context.Context, key string) error {
	if _, ok := s.defaults[key]; !ok {
		return unknownSetting(key)
	}
	return s.values.Delete(ctx, key)
}

// Overridden returns the keys that have a stored value.
func (s *Settings) Overridden(ctx context.Context) (map[string]bool, error) {
	keys, err := s.values.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	out := make(map[string]bool, len(keys))
	for _, k := range keys {
		out[k] = true
	}
	return out, nil
}

func unknownSetting(key string) error {
	return fmt.Errorf("unknown setting %q (valid: %v)", key, slices.Clone(SettingKeys))
}
