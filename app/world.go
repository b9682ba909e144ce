// Package app provides application services that orchestrate domain logic.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/easyworld/worldgen/core/compose"
	"github.com/easyworld/worldgen/core/extract"
	"github.com/easyworld/worldgen/core/prompt"
	"github.com/easyworld/worldgen/core/rules"
	"github.com/easyworld/worldgen/core/schema"
	"github.com/easyworld/worldgen/core/validation"
	"github.com/easyworld/worldgen/domain/world"
	"github.com/easyworld/worldgen/ports"
	"github.com/rs/zerolog"
)

// DefaultOracleTimeout bounds one oracle call when none is configured.
const DefaultOracleTimeout = 30 * time.Second

// rawOracleName labels requests whose oracle text was supplied by the caller.
const rawOracleName = "raw"

// WorldService turns descriptions into validated world configurations.
type WorldService struct {
	oracle      ports.Oracle
	registry    *schema.Registry
	recorder    ports.GenerationRecorder
	observer    ports.PipelineObserver
	fingerprint ports.Fingerprinter
	clock       ports.Clock
	idGen       ports.IDGenerator
	logger      zerolog.Logger

	prompts  *prompt.Builder
	norm     *validation.Normalizer
	engine   *rules.Engine
	composer *compose.Composer

	// Dynamic configuration (hot-reloadable)
	oracleTimeout atomic.Int64
}

// WorldDeps contains dependencies for WorldService.
// Oracle, Recorder, Observer and Fingerprinter are optional.
type WorldDeps struct {
	Oracle        ports.Oracle
	Registry      *schema.Registry
	Recorder      ports.GenerationRecorder
	Observer      ports.PipelineObserver
	Fingerprinter ports.Fingerprinter
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	Logger        zerolog.Logger
}

// WorldConfig contains configuration for WorldService.
type WorldConfig struct {
	OracleTimeout time.Duration
}

// NewWorldService creates a new world service. A nil registry uses
// schema.Default().
func NewWorldService(deps WorldDeps, cfg WorldConfig) *WorldService {
	reg := deps.Registry
	if reg == nil {
		reg = schema.Default()
	}

	s := &WorldService{
		oracle:      deps.Oracle,
		registry:    reg,
		recorder:    deps.Recorder,
		observer:    deps.Observer,
		fingerprint: deps.Fingerprinter,
		clock:       deps.Clock,
		idGen:       deps.IDGen,
		logger:      deps.Logger,
		prompts:     prompt.NewBuilder(reg),
		norm:        validation.New(),
		engine:      rules.NewEngine(reg),
		composer:    compose.New(reg),
	}
	s.SetOracleTimeout(cfg.OracleTimeout)
	return s
}

// SetOracleTimeout updates the oracle deadline. Zero restores the default.
func (s *WorldService) SetOracleTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultOracleTimeout
	}
	s.oracleTimeout.Store(int64(d))
}

// OracleTimeout returns the current oracle deadline.
func (s *WorldService) OracleTimeout() time.Duration {
	return time.Duration(s.oracleTimeout.Load())
}

// Registry returns the schema registry the service validates against.
func (s *WorldService) Registry() *schema.Registry {
	return s.registry
}

// Prompt returns the oracle prompt for a description.
func (s *WorldService) Prompt(description string) string {
	return s.prompts.Build(description)
}

// Generate asks the oracle for a world matching description and returns the
// validated configuration.
//
// Errors:
//   - world.ErrEmptyDescription when description is blank
//   - *world.OracleError (errors.Is world.ErrOracleUnavailable) when the oracle
//     fails or times out
//   - *world.ExtractionError when the reply holds no JSON object
func (s *WorldService) Generate(ctx context.Context, description string) (*world.Result, error) {
	start := s.clock.Now()
	id := s.idGen.New()
	oracleName := s.oracleName()

	if strings.TrimSpace(description) == "" {
		s.finish(id, description, oracleName, ports.OutcomeEmptyDescription, nil, start)
		return nil, world.ErrEmptyDescription
	}

	raw, err := s.ask(ctx, s.prompts.Build(description))
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("request_id", id).
			Str("oracle", oracleName).
			Msg("oracle call failed")
		s.finish(id, description, oracleName, ports.OutcomeOracleError, nil, start)
		return nil, err
	}

	return s.run(id, description, raw, oracleName, start)
}

// FromRaw runs the pipeline on oracle text supplied by the caller.
func (s *WorldService) FromRaw(ctx context.Context, description, raw string) (*world.Result, error) {
	start := s.clock.Now()
	id := s.idGen.New()

	if strings.TrimSpace(description) == "" {
		s.finish(id, description, rawOracleName, ports.OutcomeEmptyDescription, nil, start)
		return nil, world.ErrEmptyDescription
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.run(id, description, raw, rawOracleName, start)
}

// ask calls the oracle under the configured deadline.
func (s *WorldService) ask(ctx context.Context, p string) (string, error) {
	if s.oracle == nil {
		return "", &world.OracleError{Err: errors.New("no oracle configured")}
	}

	ctx, cancel := context.WithTimeout(ctx, s.OracleTimeout())
	defer cancel()

	started := s.clock.Now()
	raw, err := s.oracle.Complete(ctx, p)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}

	timeout := err != nil && errors.Is(err, context.DeadlineExceeded)
	if s.observer != nil {
		s.observer.ObserveOracle(s.oracle.Name(), s.clock.Now().Sub(started), err, timeout)
	}
	if err != nil {
		return "", &world.OracleError{Err: err, Timeout: timeout}
	}
	return raw, nil
}

// run extracts, normalises, reconciles and composes.
func (s *WorldService) run(id, description, raw, oracleName string, start time.Time) (*world.Result, error) {
	doc, err := extract.Extract(raw)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("request_id", id).
			Int("raw_length", len(raw)).
			Msg("oracle reply unusable")
		s.finish(id, description, oracleName, ports.OutcomeExtractionError, nil, start)
		return nil, err
	}

	set, report := s.normalize(doc)
	actx := rules.Analyze(description)
	set = s.engine.Reconcile(set, actx)

	cfg, err := s.composer.Compose(set)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("request_id", id).
			Msg("compose failed")
		s.finish(id, description, oracleName, ports.OutcomeInternalError, nil, start)
		return nil, fmt.Errorf("compose world: %w", err)
	}

	for _, a := range report.Adjustments {
		s.logger.Debug().
			Str("request_id", id).
			Str("adjustment", a.String()).
			Msg("field adjusted")
		if s.observer != nil {
			s.observer.ObserveAdjustment(a.Module, string(a.Kind))
		}
	}
	if s.observer != nil {
		for _, name := range set.Applied {
			s.observer.ObserveRule(name)
		}
	}

	kinds := make([]string, len(actx.Kinds))
	for i, k := range actx.Kinds {
		kinds[i] = string(k)
	}

	res := &world.Result{
		RequestID:   id,
		Config:      cfg,
		Adjustments: report.Adjustments,
		Kinds:       kinds,
		CityMode:    actx.CityMode,
	}
	res.Duration = s.finish(id, description, oracleName, ports.OutcomeOK, res, start)

	s.logger.Info().
		Str("request_id", id).
		Str("oracle", oracleName).
		Int("terrains", len(cfg.Terrains)).
		Int("objects", len(cfg.Objects)).
		Int("adjustments", len(report.Adjustments)).
		Strs("rules", set.Applied).
		Bool("city", cfg.HasCity()).
		Dur("duration", res.Duration).
		Msg("world generated")

	return res, nil
}

// normalize maps the candidate document onto the schema.
func (s *WorldService) normalize(doc extract.Document) (rules.Set, validation.Report) {
	var report validation.Report
	reg := s.registry

	heights := reg.MustSchemaFor(schema.KindHeights)
	textures := reg.MustSchemaFor(schema.KindTextures)
	trees := reg.MustSchemaFor(schema.KindTrees)
	grass := reg.MustSchemaFor(schema.KindGrass)
	water := reg.MustSchemaFor(schema.KindWater)

	var set rules.Set
	for _, t := range doc.Terrains() {
		var terrain world.Terrain
		var r validation.Report

		terrain.Heights, r = s.norm.Module(extract.Section(t, extract.KeyHeights), heights)
		report.Merge(r)
		terrain.Textures, r = s.norm.Textures(asList(extract.Section(t, extract.KeyTextures)), textures)
		report.Merge(r)
		terrain.Trees, r = s.norm.Module(extract.Section(t, extract.KeyTrees), trees)
		report.Merge(r)
		terrain.Grass, r = s.norm.Module(extract.Section(t, extract.KeyGrass), grass)
		report.Merge(r)
		terrain.Water, r = s.norm.Module(extract.Section(t, extract.KeyWater), water)
		report.Merge(r)

		set.Terrains = append(set.Terrains, terrain)
	}

	objects, r := s.norm.List(doc.Objects(), reg.MustSchemaFor(schema.KindObjects))
	report.Merge(r)
	set.Objects = objects

	atmosphere, r := s.norm.Module(doc.Atmosphere(), reg.MustSchemaFor(schema.KindAtmosphere))
	report.Merge(r)
	set.Atmosphere = atmosphere

	if raw, ok := doc.City(); ok {
		city, r := s.norm.Module(raw, reg.MustSchemaFor(schema.KindCity))
		report.Merge(r)
		set.City = &city
	}

	return set, report
}

// finish records the request and returns its duration.
func (s *WorldService) finish(id, description, oracleName string, outcome ports.Outcome, res *world.Result, start time.Time) time.Duration {
	d := s.clock.Now().Sub(start)

	if s.observer != nil {
		s.observer.ObserveGeneration(outcome)
	}
	if s.recorder == nil {
		return d
	}

	g := ports.Generation{
		ID:        id,
		Oracle:    oracleName,
		Outcome:   outcome,
		Duration:  d,
		Timestamp: start,
	}
	if s.fingerprint != nil && strings.TrimSpace(description) != "" {
		g.Fingerprint = s.fingerprint.Fingerprint(description)
	}
	if res != nil && res.Config != nil {
		g.Terrains = len(res.Config.Terrains)
		g.Objects = len(res.Config.Objects)
		g.Adjustments = len(res.Adjustments)
		g.CityMode = res.Config.HasCity()
	}
	s.recorder.Record(g)
	return d
}

func (s *WorldService) oracleName() string {
	if s.oracle == nil {
		return "none"
	}
	return s.oracle.Name()
}

// asList accepts a list or a lone object.
func asList(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		return []any{t}
	}
	return nil
}
