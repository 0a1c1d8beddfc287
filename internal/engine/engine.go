// Package engine drives the iterative research loop: plan sub-questions,
// retrieve evidence, write a draft, critique it, and decide whether another
// round is warranted. One Engine serves many sessions; one session serves
// one query.
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scoutlab/scout/internal/critic"
	"github.com/scoutlab/scout/internal/fetch"
	"github.com/scoutlab/scout/internal/llm"
	"github.com/scoutlab/scout/internal/model"
	"github.com/scoutlab/scout/internal/planner"
	"github.com/scoutlab/scout/internal/registry"
	"github.com/scoutlab/scout/internal/retrieve"
	"github.com/scoutlab/scout/internal/search"
	"github.com/scoutlab/scout/internal/writer"
)

// Engine owns the phase components and the session bounds
type Engine struct {
	planner   *planner.Planner
	retriever *retrieve.Retriever
	writer    *writer.Writer
	critic    *critic.Critic
	bounds    model.BoundsConfig
	trace     bool
	logger    *zap.Logger
}

// New assembles an engine from configuration
func New(cfg *model.Config, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	bounds := cfg.Bounds.Normalize()

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg))
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}
	if provider == nil {
		logger.Info("text generation disabled, phases run in fallback mode")
	}

	web, err := search.NewWebProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("create web provider: %w", err)
	}
	internal, err := search.NewInternalProvider(cfg, bounds.ProviderTimeout)
	if err != nil {
		return nil, fmt.Errorf("create internal provider: %w", err)
	}
	if web == nil && internal == nil {
		logger.Warn("no search providers configured, sessions can only fail or degrade")
	}

	var enricher *fetch.Enricher
	if cfg.Fetch.Enabled {
		enricher = fetch.NewEnricher(cfg.Fetch, cfg.Proxy, logger)
	}

	retriever := retrieve.New(internal, web, enricher,
		search.Filters(cfg.Search.InternalFilters), bounds, cfg.Concurrency.RetrievalWorkers, logger)

	return newEngine(
		planner.New(provider, bounds, logger),
		retriever,
		writer.New(provider, logger),
		critic.New(provider, bounds, logger),
		bounds,
		cfg.Output.IncludeTrace,
		logger,
	), nil
}

func newEngine(p *planner.Planner, r *retrieve.Retriever, w *writer.Writer, c *critic.Critic,
	bounds model.BoundsConfig, trace bool, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		planner:   p,
		retriever: r,
		writer:    w,
		critic:    c,
		bounds:    bounds.Normalize(),
		trace:     trace,
		logger:    logger,
	}
}

// Execute runs one research session to a terminal state and returns the
// final report. Cancellation is all-or-nothing: a cancelled context returns
// an error, never a partial report.
func (e *Engine) Execute(ctx context.Context, query string) (*model.Report, error) {
	sess := model.NewSession(query)
	reg := registry.New()
	logger := e.logger.With(zap.String("session", sess.ID))

	var questions []model.SubQuestion
	var lastCritique model.CritiqueResult
	var iterEvidence, iterNew, iterReused int

	for !sess.State.Terminal() {
		if err := ctx.Err(); err != nil {
			sess.State = model.StateFailed
			return nil, fmt.Errorf("session cancelled: %w", err)
		}

		switch sess.State {
		case model.StatePlanning:
			qs, err := e.planner.PlanInitial(ctx, query)
			if err != nil {
				sess.State = Next(sess.State, Outcome{Fatal: true})
				return nil, err
			}
			sess.Iteration = 1
			sess.SubQuestionsByIteration[1] = qs
			questions = qs
			logger.Info("planned sub-questions", zap.Int("count", len(qs)))
			sess.State = Next(sess.State, Outcome{})

		case model.StateRetrieving:
			iterEvidence, iterNew, iterReused = 0, 0, 0
			items, err := e.retriever.Retrieve(ctx, questions, sess.Iteration)
			if err != nil {
				sess.State = model.StateFailed
				return nil, fmt.Errorf("session cancelled: %w", err)
			}
			// Single sequential registration pass after the fan-out join
			for _, item := range items {
				_, isNew, err := reg.Register(item)
				if err != nil {
					logger.Warn("evidence item dropped", zap.Error(err))
					continue
				}
				sess.Evidence = append(sess.Evidence, item)
				iterEvidence++
				if isNew {
					iterNew++
				} else {
					iterReused++
				}
			}
			logger.Info("retrieval round complete",
				zap.Int("iteration", sess.Iteration),
				zap.Int("evidence", iterEvidence),
				zap.Int("new_citations", iterNew),
				zap.Int("reused_citations", iterReused))
			sess.State = Next(sess.State, Outcome{})

		case model.StateWriting:
			draft, err := e.writer.Write(ctx, writer.Input{
				Query:         query,
				Sources:       reg.List(),
				Evidence:      sess.Evidence,
				PreviousDraft: sess.Draft,
				MissingTopics: lastCritique.MissingTopics,
				Iteration:     sess.Iteration,
			})
			if err != nil {
				sess.State = Next(sess.State, Outcome{Fatal: true})
				return nil, err
			}
			sess.Draft = draft
			sess.State = Next(sess.State, Outcome{})

		case model.StateCritiquing:
			cr := e.critic.Review(ctx, query, sess.Draft, reg.References(), sess.Iteration)
			lastCritique = cr

			cont := false
			if cr.ContinueFlag && sess.Iteration < e.bounds.MaxIterations {
				follow := e.planner.PlanFollowUps(cr, sess.Iteration+1)
				if len(follow) > 0 {
					questions = follow
					sess.Iteration++
					sess.SubQuestionsByIteration[sess.Iteration] = follow
					cont = true
				}
			}
			if !cont && !cr.CompleteEnough {
				sess.BestEffort = true
			}

			sess.Trace = append(sess.Trace, model.IterationRecord{
				Iteration:       len(sess.Trace) + 1,
				SubQuestions:    questionTexts(sess.SubQuestionsByIteration[len(sess.Trace)+1]),
				EvidenceFound:   iterEvidence,
				NewCitations:    iterNew,
				ReusedCitations: iterReused,
				CompleteEnough:  cr.CompleteEnough,
				MissingTopics:   cr.MissingTopics,
				Continued:       cont,
			})

			logger.Info("critique complete",
				zap.Int("iteration", len(sess.Trace)),
				zap.Bool("complete_enough", cr.CompleteEnough),
				zap.Bool("continue", cont))
			sess.State = Next(sess.State, Outcome{Continue: cont})
		}
	}

	report := &model.Report{
		Query:       query,
		Draft:       sess.Draft,
		References:  reg.References(),
		Iterations:  sess.Iteration,
		BestEffort:  sess.BestEffort,
		GeneratedAt: time.Now().UTC(),
	}
	if e.trace {
		report.Trace = sess.Trace
	}

	logger.Info("session done",
		zap.Int("iterations", report.Iterations),
		zap.Int("references", len(report.References)),
		zap.Bool("best_effort", report.BestEffort),
		zap.Duration("elapsed", time.Since(sess.StartedAt)))

	return report, nil
}

func questionTexts(questions []model.SubQuestion) []string {
	out := make([]string, len(questions))
	for i, q := range questions {
		out[i] = q.Text
	}
	return out
}
