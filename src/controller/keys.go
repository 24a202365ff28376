package controller

import (
	"context"
	"fmt"
	"strings"
)

// KeyResolver picks the panel key for a call: the explicit key, else the
// stored settings key, else the process-wide fallback.
type KeyResolver struct {
	settings settingsStore
	fallback string
}

func NewKeyResolver(settings settingsStore, fallback string) *KeyResolver {
	return &KeyResolver{settings: settings, fallback: strings.TrimSpace(fallback)}
}

// Resolve reads the settings on every call.
func (k *KeyResolver) Resolve(ctx context.Context, explicit string) (string, error) {
	if key := strings.TrimSpace(explicit); key != "" {
		return key, nil
	}

	if k.settings != nil {
		settings, err := k.settings.Get(ctx)
		if err != nil {
			return "", fmt.Errorf("load settings: %w", err)
		}
		if key := strings.TrimSpace(settings.PanelKey); key != "" {
			return key, nil
		}
	}

	return k.fallback, nil
}
