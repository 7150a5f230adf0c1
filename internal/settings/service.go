package settings

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"leadfunnel_backend/platform/apperr"
	"leadfunnel_backend/platform/logger"
	"leadfunnel_backend/platform/sanitize"
)

const (
	// KeyCpqlTarget holds the guaranteed cost-per-qualified-lead.
	KeyCpqlTarget = "cpqlTarget"
	// ContentPrefix namespaces the editable landing-page copy.
	ContentPrefix = "content_"
)

// Service reads and writes runtime settings. Reads never fail the caller: a
// missing or unreachable value falls back to the configured default.
type Service struct {
	repo              Repository
	defaultCpqlTarget float64
	log               *logger.Logger
}

func NewService(repo Repository, defaultCpqlTarget float64, log *logger.Logger) *Service {
	return &Service{repo: repo, defaultCpqlTarget: defaultCpqlTarget, log: log}
}

// CpqlTarget returns the stored target, or the default when the stored value
// is missing, unreachable or unparseable.
func (s *Service) CpqlTarget(ctx context.Context) float64 {
	raw, err := s.repo.Get(ctx, KeyCpqlTarget)
	if errors.Is(err, ErrNotFound) {
		return s.defaultCpqlTarget
	}
	if err != nil {
		s.log.StoreError("get_cpql_target", err)
		return s.defaultCpqlTarget
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v <= 0 {
		s.log.Warn("stored cpql target is invalid, using default", "value", raw)
		return s.defaultCpqlTarget
	}
	return v
}

// SetCpqlTarget stores a new target. The value must be positive.
func (s *Service) SetCpqlTarget(ctx context.Context, target float64) error {
	if target <= 0 {
		return apperr.Validation("cpql target must be positive")
	}
	if err := s.repo.Set(ctx, KeyCpqlTarget, strconv.FormatFloat(target, 'f', -1, 64)); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "failed to store cpql target", err)
	}
	return nil
}

// Content returns all landing-page copy entries, keyed without the prefix.
func (s *Service) Content(ctx context.Context) (map[string]string, error) {
	stored, err := s.repo.ListByPrefix(ctx, ContentPrefix)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "failed to load content", err)
	}
	out := make(map[string]string, len(stored))
	for k, v := range stored {
		out[strings.TrimPrefix(k, ContentPrefix)] = v
	}
	return out, nil
}

// PutContent stores one copy entry. Keys are slugs without the prefix.
func (s *Service) PutContent(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsAny(key, " \t\n") {
		return apperr.Validation("content key must be a non-empty slug")
	}
	if err := s.repo.Set(ctx, ContentPrefix+key, sanitize.Text(value)); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "failed to store content", err)
	}
	return nil
}

// DeleteContent removes one copy entry.
func (s *Service) DeleteContent(ctx context.Context, key string) error {
	err := s.repo.Delete(ctx, ContentPrefix+strings.TrimSpace(key))
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("content entry not found")
	}
	if err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "failed to delete content", err)
	}
	return nil
}
