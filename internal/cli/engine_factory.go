package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/shindan"
	"github.com/aretw0/shindan/pkg/adapters/file"
	"github.com/aretw0/shindan/pkg/adapters/loam"
	"github.com/aretw0/shindan/pkg/domain"
	"github.com/aretw0/shindan/pkg/ports"
)

// ErrConflictingSources is returned when both a tree file and a vault directory are given.
var ErrConflictingSources = errors.New("--file and --dir are mutually exclusive")

// EngineOptions selects where the tree comes from.
type EngineOptions struct {
	// File is a single YAML, JSON or HCL tree document.
	File string
	// Dir is a loam vault with one document per node.
	Dir string
	// Entry overrides the entry question of a vault.
	Entry string
}

// Source returns a label for the configured tree source.
func (o EngineOptions) Source() string {
	switch {
	case o.File != "":
		return o.File
	case o.Dir != "":
		return o.Dir
	default:
		return "shipped"
	}
}

// NewLoader builds the loader for opts. Without a file or directory it returns nil,
// which makes the engine fall back to the shipped content.
func NewLoader(opts EngineOptions, logger *slog.Logger) (ports.TreeLoader, error) {
	switch {
	case opts.File != "" && opts.Dir != "":
		return nil, ErrConflictingSources
	case opts.File != "":
		l, err := file.New(opts.File, file.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return l, nil
	case opts.Dir != "":
		var loamOpts []loam.Option
		if opts.Entry != "" {
			loamOpts = append(loamOpts, loam.WithEntry(opts.Entry))
		}
		l, err := loam.Open(opts.Dir, loamOpts...)
		if err != nil {
			return nil, err
		}
		return l, nil
	default:
		return nil, nil
	}
}

// NewEngine initializes the engine with standard CLI conventions.
func NewEngine(opts EngineOptions, logger *slog.Logger, extra ...shindan.Option) (*shindan.Engine, error) {
	loader, err := NewLoader(opts, logger)
	if err != nil {
		return nil, fmt.Errorf("error initializing loader: %w", err)
	}

	engineOpts := []shindan.Option{
		shindan.WithLogger(logger),
		shindan.WithName(opts.Source()),
		shindan.WithLifecycleHooks(debugHooks(logger)),
	}
	if loader != nil {
		engineOpts = append(engineOpts, shindan.WithLoader(loader))
	}
	engineOpts = append(engineOpts, extra...)

	eng, err := shindan.New(engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return eng, nil
}

func debugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnResult: func(_ context.Context, e *domain.AdvanceEvent) {
			logger.Debug("result reached", "result_id", e.ToID, "session_id", e.SessionID)
		},
	}
}
