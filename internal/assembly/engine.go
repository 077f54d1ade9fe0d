package assembly

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
)

// ExerciseLister is the read side of the exercise repository the engine needs.
type ExerciseLister interface {
	List(ctx context.Context, exerciseType models.ExerciseType, part models.ExercisePart) ([]*models.Exercise, error)
}

// Engine loads exercise pools for a test grid and draws one exercise per part.
type Engine struct {
	lister ExerciseLister
	logger *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Engine)

// WithRand replaces the random source, mostly for deterministic tests.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = r
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func NewEngine(lister ExerciseLister, opts ...Option) *Engine {
	e := &Engine{
		lister: lister,
		logger: slog.Default(),
		rng:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LoadPools fetches the pool of every part concurrently and returns a new grid;
// the input is never modified. A failed fetch is logged and leaves the pool
// empty. Only cancellation of ctx makes LoadPools fail, in which case every
// partial result is discarded.
func (e *Engine) LoadPools(ctx context.Context, sections []models.Section) ([]models.Section, error) {
	out := models.CloneSections(sections)

	g, gctx := errgroup.WithContext(ctx)
	for i := range out {
		for j := range out[i].Parts {
			sectionType := out[i].Type
			part := &out[i].Parts[j]
			g.Go(func() error {
				pool := e.loadPart(gctx, sectionType, part.SourceParts())
				if err := gctx.Err(); err != nil {
					return err
				}
				part.ExercisePool = pool
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("pool loading cancelled: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pool loading cancelled: %w", err)
	}
	return out, nil
}

func (e *Engine) loadPart(ctx context.Context, exerciseType models.ExerciseType, sources []models.ExercisePart) []models.ExerciseSummary {
	pool := []models.ExerciseSummary{}
	seen := make(map[string]struct{})

	for _, src := range sources {
		exercises, err := e.lister.List(ctx, exerciseType, src)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			e.logger.Warn("Failed to load exercise pool, treating as empty",
				"type", exerciseType,
				"part", src,
				"error", err)
			continue
		}
		for _, ex := range exercises {
			if ex == nil {
				continue
			}
			if _, dup := seen[ex.ID]; dup {
				continue
			}
			seen[ex.ID] = struct{}{}
			pool = append(pool, ex.Summary())
		}
	}
	return pool
}

// SelectRandom draws one exercise per part, uniformly and independently, and
// returns a new grid. Parts with an empty pool get no selection and the second
// result is false. Every call draws again.
func (e *Engine) SelectRandom(sections []models.Section) ([]models.Section, bool) {
	out := models.CloneSections(sections)
	allNonEmpty := false

	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range out {
		for j := range out[i].Parts {
			part := &out[i].Parts[j]
			if len(part.ExercisePool) == 0 {
				part.SelectedExerciseID = nil
				continue
			}
			id := part.ExercisePool[e.rng.IntN(len(part.ExercisePool))].ID
			part.SelectedExerciseID = &id
		}
	}

	if len(out) > 0 {
		allNonEmpty = len(EmptyParts(out)) == 0
	}
	return out, allNonEmpty
}

// EmptyParts reports every part that has nothing to select from. A section
// without parts is reported with Part set to -1.
func EmptyParts(sections []models.Section) []models.PartRef {
	var refs []models.PartRef
	for i, s := range sections {
		if len(s.Parts) == 0 {
			refs = append(refs, models.PartRef{Section: i, Part: -1, Type: s.Type})
			continue
		}
		for j, p := range s.Parts {
			if len(p.ExercisePool) == 0 {
				refs = append(refs, models.PartRef{Section: i, Part: j, Type: s.Type, PartID: p.Part})
			}
		}
	}
	return refs
}
