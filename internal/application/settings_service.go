package application

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed settings_defaults.yaml
var defaultSettingsYAML []byte

// SettingsCategory is a named list of dropdown options.
type SettingsCategory struct {
	Name      string
	Items     []string
	UpdatedAt time.Time
}

type settingsDocument struct {
	Categories map[string][]string `yaml:"categories"`
}

// ParseSettings decodes a YAML document of the form
//
//	categories:
//	  departments: [Engineering, Finance]
//
// Empty input yields the embedded defaults.
func ParseSettings(data []byte) (map[string][]string, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		data = defaultSettingsYAML
	}
	var doc settingsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	out := make(map[string][]string, len(doc.Categories))
	for name, items := range doc.Categories {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("parse settings: empty category name")
		}
		cleaned, _ := normalizeItems(items)
		out[name] = cleaned
	}
	return out, nil
}

// SettingsService manages dropdown categories. Reset restores the seed set.
type SettingsService struct {
	categories Repository[SettingsCategory]
	defaults   map[string][]string
	now        func() time.Time
	logger     *slog.Logger
}

// NewSettingsService wires dependencies for settings operations. defaults is
// the seed set used by Seed and Reset.
func NewSettingsService(categories Repository[SettingsCategory], defaults map[string][]string, now func() time.Time, logger *slog.Logger) *SettingsService {
	if now == nil {
		now = time.Now
	}
	seed := make(map[string][]string, len(defaults))
	for name, items := range defaults {
		seed[name] = append([]string(nil), items...)
	}
	return &SettingsService{categories: categories, defaults: seed, now: now, logger: defaultLogger(logger)}
}

func (s *SettingsService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SettingsService", operation, attrs...)
}

func (s *SettingsService) ready() error {
	if s == nil {
		return fmt.Errorf("SettingsService is nil")
	}
	if s.categories == nil {
		return fmt.Errorf("settings repository not configured")
	}
	return nil
}

// Seed stores every default category that is not present yet.
func (s *SettingsService) Seed(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	now := s.now()
	for name, items := range s.defaults {
		_, _, err := s.categories.Upsert(ctx, name, func(current SettingsCategory, exists bool) (SettingsCategory, error) {
			if exists {
				return current, nil
			}
			return SettingsCategory{Name: name, Items: append([]string(nil), items...), UpdatedAt: now}, nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ListSettings returns every category sorted by name.
func (s *SettingsService) ListSettings(ctx context.Context) ([]SettingsCategory, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	all, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

// GetCategory returns one category.
func (s *SettingsService) GetCategory(ctx context.Context, name string) (SettingsCategory, error) {
	if err := s.ready(); err != nil {
		return SettingsCategory{}, err
	}
	category, err := s.categories.Get(ctx, strings.TrimSpace(name))
	return category, mapRepoError(err)
}

// ReplaceCategory overwrites the items of a category, creating it when absent.
// Duplicate items in the request collapse to one.
func (s *SettingsService) ReplaceCategory(ctx context.Context, principal Principal, name string, items []string) (category SettingsCategory, err error) {
	if err = s.ready(); err != nil {
		return
	}

	name = strings.TrimSpace(name)
	logger := s.loggerWith(ctx, "ReplaceCategory", "principal_id", principal.UserID, "category", name)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to replace category", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("items", len(category.Items)).InfoContext(ctx, "category replaced")
	}()

	if !principal.Authenticated() {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	if name == "" {
		vErr.add("category", "category is required")
	}
	cleaned, blank := normalizeItems(items)
	if blank {
		vErr.add("items", "items must not be blank")
	}
	if err = vErr.errOrNil(); err != nil {
		return
	}

	now := s.now()
	category, _, err = s.categories.Upsert(ctx, name, func(SettingsCategory, bool) (SettingsCategory, error) {
		return SettingsCategory{Name: name, Items: cleaned, UpdatedAt: now}, nil
	})
	err = mapRepoError(err)
	return
}

// AddItem appends value to an existing category. Items compare case-insensitively.
func (s *SettingsService) AddItem(ctx context.Context, principal Principal, name, value string) (category SettingsCategory, err error) {
	if err = s.ready(); err != nil {
		return
	}

	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)
	logger := s.loggerWith(ctx, "AddItem", "principal_id", principal.UserID, "category", name)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to add item", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "item added")
	}()

	if !principal.Authenticated() {
		err = ErrUnauthorized
		return
	}
	if value == "" {
		vErr := &ValidationError{}
		vErr.add("value", "value is required")
		err = vErr
		return
	}

	now := s.now()
	category, err = s.categories.Update(ctx, name, func(current SettingsCategory) (SettingsCategory, error) {
		if indexFold(current.Items, value) >= 0 {
			return SettingsCategory{}, ErrAlreadyExists
		}
		current.Items = append(append([]string(nil), current.Items...), value)
		current.UpdatedAt = now
		return current, nil
	}, nil)
	err = mapRepoError(err)
	return
}

// RemoveItem deletes value from a category.
func (s *SettingsService) RemoveItem(ctx context.Context, principal Principal, name, value string) (category SettingsCategory, err error) {
	if err = s.ready(); err != nil {
		return
	}

	name = strings.TrimSpace(name)
	logger := s.loggerWith(ctx, "RemoveItem", "principal_id", principal.UserID, "category", name)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to remove item", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "item removed")
	}()

	if !principal.Authenticated() {
		err = ErrUnauthorized
		return
	}

	now := s.now()
	category, err = s.categories.Update(ctx, name, func(current SettingsCategory) (SettingsCategory, error) {
		i := indexFold(current.Items, strings.TrimSpace(value))
		if i < 0 {
			return SettingsCategory{}, ErrNotFound
		}
		items := make([]string, 0, len(current.Items)-1)
		items = append(items, current.Items[:i]...)
		current.Items = append(items, current.Items[i+1:]...)
		current.UpdatedAt = now
		return current, nil
	}, nil)
	err = mapRepoError(err)
	return
}

// Reset discards every category and restores the seed set.
func (s *SettingsService) Reset(ctx context.Context, principal Principal) ([]SettingsCategory, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	logger := s.loggerWith(ctx, "Reset", "principal_id", principal.UserID)
	if !principal.Authenticated() {
		logger.ErrorContext(ctx, "failed to reset settings", "error_kind", ErrorKind(ErrUnauthorized))
		return nil, ErrUnauthorized
	}

	current, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, category := range current {
		if _, ok := s.defaults[category.Name]; ok {
			continue
		}
		if _, err := s.categories.Delete(ctx, category.Name); err != nil && !errors.Is(mapRepoError(err), ErrNotFound) {
			return nil, err
		}
	}
	now := s.now()
	for name, items := range s.defaults {
		if _, _, err := s.categories.Upsert(ctx, name, func(SettingsCategory, bool) (SettingsCategory, error) {
			return SettingsCategory{Name: name, Items: append([]string(nil), items...), UpdatedAt: now}, nil
		}); err != nil {
			return nil, err
		}
	}

	logger.InfoContext(ctx, "settings reset")
	return s.ListSettings(ctx)
}

// normalizeItems trims and de-duplicates items case-insensitively, keeping the
// first spelling. blank reports whether any item was empty.
func normalizeItems(items []string) (cleaned []string, blank bool) {
	cleaned = make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			blank = true
			continue
		}
		if indexFold(cleaned, item) >= 0 {
			continue
		}
		cleaned = append(cleaned, item)
	}
	return cleaned, blank
}

func indexFold(items []string, value string) int {
	for i, item := range items {
		if strings.EqualFold(item, value) {
			return i
		}
	}
	return -1
}
