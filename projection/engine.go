package projection

import (
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"projector/internal/analyze"
	"projector/internal/common"
	"projector/internal/plan"
	"projector/primitive"
)

// Config controls how contract methods are resolved against sources.
type Config = plan.ResolutionConfig

// DefaultConfig returns the default resolution configuration.
func DefaultConfig() Config {
	return plan.DefaultConfig()
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig replaces the resolution configuration.
func WithConfig(config Config) Option {
	return func(e *Engine) { e.config = config }
}

// WithLogger sets the logger used for shape builds and unresolved methods.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithConverter replaces the coercion service applied to results and
// written values.
func WithConverter(converter primitive.Converter) Option {
	return func(e *Engine) { e.converter = converter }
}

// WithCasters registers conversion functions consulted before the
// configured converter. See primitive.ParseCaster for accepted signatures.
func WithCasters(fns ...any) Option {
	return func(e *Engine) { e.casters = append(e.casters, fns...) }
}

// Engine owns every registry a projection needs: type descriptors, the
// adapter shape cache and the coercion service. Engines are safe for
// concurrent use; independent engines share nothing.
type Engine struct {
	config    Config
	logger    *zap.Logger
	converter primitive.Converter
	casters   []any

	analyzer *analyze.Analyzer
	resolver *plan.Resolver
	shapes   shapeCache
}

// New creates an engine.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		config:    DefaultConfig(),
		logger:    zap.NewNop(),
		converter: primitive.NewCastConverter(primitive.CategoryAll),
	}

	for _, opt := range opts {
		opt(e)
	}

	if len(e.casters) > 0 {
		casters := primitive.NewCasters(e.converter)
		if err := casters.Register(e.casters...); err != nil {
			return nil, err
		}

		e.converter = casters
	}

	e.analyzer = analyze.NewAnalyzer(proxyType)
	e.resolver = plan.NewResolver(e.analyzer, e.config)

	return e, nil
}

// Stats is a snapshot of the engine caches.
type Stats struct {
	Shapes int   // adapter shapes built and cached
	Types  int   // described source and contract types
	Builds int64 // shape builds, failed ones included
	Hits   int64 // projections served from the shape cache
}

// Stats returns a snapshot of the engine caches.
func (e *Engine) Stats() Stats {
	return Stats{
		Shapes: e.shapes.count(),
		Types:  e.analyzer.Count(),
		Builds: e.shapes.builds.Load(),
		Hits:   e.shapes.hits.Load(),
	}
}

// contracts flattens the requested contract types. Types that are not
// contracts are caller errors; malformed contracts fail construction.
func (e *Engine) contracts(types []reflect.Type) ([]*analyze.Contract, error) {
	if len(types) == 0 {
		return nil, ErrNoContracts
	}

	contracts := make([]*analyze.Contract, 0, len(types))
	for _, t := range types {
		if t == nil {
			return nil, fmt.Errorf("%w: <nil>", ErrNotContract)
		}

		c, err := e.analyzer.Contract(t)
		if errors.Is(err, analyze.ErrInvalidContract) {
			return nil, &ConstructionError{Shape: common.TypeName(t), Err: err}
		}

		if err != nil {
			return nil, err
		}

		contracts = append(contracts, c)
	}

	return contracts, nil
}

// shape returns the cached shape for a source and contract set, building it
// on first use.
func (e *Engine) shape(kind plan.SourceKind, source reflect.Type, types []reflect.Type) (*plan.Shape, error) {
	contracts, err := e.contracts(types)
	if err != nil {
		return nil, err
	}

	ordered := make([]reflect.Type, 0, len(contracts))
	for _, c := range contracts {
		ordered = append(ordered, c.Type)
	}

	key := plan.KeyOf(kind, source, ordered)

	return e.shapes.getOrBuild(key, func() (*plan.Shape, error) {
		return e.build(key, source, contracts)
	})
}

func (e *Engine) build(key plan.ShapeKey, source reflect.Type, contracts []*analyze.Contract) (*plan.Shape, error) {
	var (
		shape *plan.Shape
		err   error
	)

	switch key.Kind {
	case plan.SourceDictionary:
		shape, err = e.resolver.BuildDictionary(contracts)
	case plan.SourceHandler:
		shape, err = e.resolver.BuildHandler(contracts)
	default:
		shape, err = e.resolver.BuildObject(source, contracts)
	}

	if err != nil {
		e.logger.Warn("Adapter construction failed", zap.String("shape", key.String()), zap.Error(err))
		return nil, &ConstructionError{Shape: key.String(), Err: err}
	}

	for _, d := range shape.Diagnostics.Warnings {
		e.logger.Info("Contract method unresolved",
			zap.String("code", d.Code),
			zap.String("shape", d.Shape),
			zap.String("method", d.Method),
			zap.Strings("suggestions", d.Suggestions))
	}

	names := make([]string, 0, len(contracts))
	for _, c := range contracts {
		names = append(names, c.ID.String())
	}

	e.logger.Debug("Adapter shape built",
		zap.String("source", key.Kind.String()+" "+common.TypeName(source)),
		zap.Strings("contracts", names),
		zap.Int("entries", len(shape.Entries)))

	return shape, nil
}
