package mediamigrate

import (
	"context"
	"fmt"

	"github.com/abhisek/sanlang/internal/objstore"
)

// Resolution is where an object was found.
type Resolution struct {
	Key       string
	AtDecoded bool
	Strategy  string
}

// KeyStrategy looks for the object behind a legacy key. Resolve returns
// nil, nil when the object is not where the strategy looks.
type KeyStrategy interface {
	Name() string
	Resolve(ctx context.Context, objects objstore.Store, legacyKey string) (*Resolution, error)
}

// DecodedKey looks for the object at the percent-decoded key.
type DecodedKey struct{}

func (DecodedKey) Name() string { return "decoded" }

func (s DecodedKey) Resolve(ctx context.Context, objects objstore.Store, legacyKey string) (*Resolution, error) {
	key, err := DecodeKey(legacyKey)
	if err != nil {
		return nil, err
	}
	ok, err := objects.Exists(ctx, key)
	if err != nil || !ok {
		return nil, err
	}
	return &Resolution{Key: key, AtDecoded: true, Strategy: s.Name()}, nil
}

// LiteralKey looks for the object at the key as stored.
type LiteralKey struct{}

func (LiteralKey) Name() string { return "literal" }

func (s LiteralKey) Resolve(ctx context.Context, objects objstore.Store, legacyKey string) (*Resolution, error) {
	ok, err := objects.Exists(ctx, legacyKey)
	if err != nil || !ok {
		return nil, err
	}
	return &Resolution{Key: legacyKey, Strategy: s.Name()}, nil
}

// DefaultStrategies tries the decoded key before the literal one.
func DefaultStrategies() []KeyStrategy {
	return []KeyStrategy{DecodedKey{}, LiteralKey{}}
}

// StrategiesByName builds a strategy list from configuration names.
func StrategiesByName(names []string) ([]KeyStrategy, error) {
	if len(names) == 0 {
		return DefaultStrategies(), nil
	}
	out := make([]KeyStrategy, 0, len(names))
	for _, n := range names {
		switch n {
		case "decoded":
			out = append(out, DecodedKey{})
		case "literal":
			out = append(out, LiteralKey{})
		default:
			return nil, fmt.Errorf("unknown key strategy %q", n)
		}
	}
	return out, nil
}

// resolve runs strategies in order; the first hit wins.
func resolve(ctx context.Context, strategies []KeyStrategy, objects objstore.Store, legacyKey string, wait func(context.Context) error) (*Resolution, error) {
	for _, s := range strategies {
		if err := wait(ctx); err != nil {
			return nil, err
		}
		r, err := s.Resolve(ctx, objects, legacyKey)
		if err != nil {
			return nil, fmt.Errorf("%s lookup: %w", s.Name(), err)
		}
		if r != nil {
			return r, nil
		}
	}
	return nil, nil
}
