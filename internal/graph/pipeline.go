// Package graph runs the analysis stages as a strict sequential
// pipeline. Each stage receives the state by value and returns a copy
// carrying its own result; a stage failure aborts the run.
package graph

import (
	"context"
	"fmt"

	"github.com/phuslu/log"

	"github.com/hweilin/quantmind/consts"
	"github.com/hweilin/quantmind/internal/agents/analysts"
	"github.com/hweilin/quantmind/internal/agents/debate"
	"github.com/hweilin/quantmind/internal/agents/portfolio"
	"github.com/hweilin/quantmind/internal/agents/researchers"
	"github.com/hweilin/quantmind/internal/agents/riskmgr"
	"github.com/hweilin/quantmind/internal/llm"
	"github.com/hweilin/quantmind/models"
)

// StageFunc advances the state by one pipeline stage.
type StageFunc func(ctx context.Context, st models.State) (models.State, error)

type stage struct {
	name string
	run  StageFunc
}

// Pipeline executes its stages in declaration order.
type Pipeline struct {
	stages []stage
	logger log.Logger
}

// Options for building the standard pipeline.
type Options struct {
	// MaxNews caps how many recent articles the sentiment stage reads.
	MaxNews int
}

// New wires the full nine-stage pipeline: the four analysts, both
// researchers, the debate room, the risk manager and the portfolio
// manager. The same completion client serves every stage that needs one.
func New(svc *llm.Client, opts Options, logger log.Logger) *Pipeline {
	room := debate.NewRoom(svc, logger)
	manager := portfolio.NewManager(svc, logger)

	return &Pipeline{
		logger: logger,
		stages: []stage{
			{consts.TechnicalAnalyst, signalStage(analysts.Technical)},
			{consts.FundamentalsAnalyst, signalStage(analysts.Fundamentals)},
			{consts.SentimentAnalyst, func(ctx context.Context, st models.State) (models.State, error) {
				return st.WithSignal(analysts.Sentiment(ctx, svc, st, opts.MaxNews, logger)), nil
			}},
			{consts.ValuationAnalyst, signalStage(analysts.Valuation)},
			{consts.BullResearcher, func(_ context.Context, st models.State) (models.State, error) {
				thesis, err := researchers.Bull(st)
				if err != nil {
					return st, err
				}
				st.BullThesis = &thesis
				return st, nil
			}},
			{consts.BearResearcher, func(_ context.Context, st models.State) (models.State, error) {
				thesis, err := researchers.Bear(st)
				if err != nil {
					return st, err
				}
				st.BearThesis = &thesis
				return st, nil
			}},
			{consts.DebateRoom, func(ctx context.Context, st models.State) (models.State, error) {
				result, err := room.Run(ctx, st)
				if err != nil {
					return st, err
				}
				st.Debate = &result
				return st, nil
			}},
			{consts.RiskManager, func(_ context.Context, st models.State) (models.State, error) {
				assessment, err := riskmgr.Assess(st)
				if err != nil {
					return st, err
				}
				st.Risk = &assessment
				return st, nil
			}},
			{consts.PortfolioManager, func(ctx context.Context, st models.State) (models.State, error) {
				decision, err := manager.Decide(ctx, st)
				if err != nil {
					return st, err
				}
				st.Decision = &decision
				return st, nil
			}},
		},
	}
}

// Run executes every stage in order. The returned state carries the
// final decision; on error it is the last successfully advanced state.
func (p *Pipeline) Run(ctx context.Context, st models.State) (models.State, error) {
	for _, s := range p.stages {
		if err := ctx.Err(); err != nil {
			return st, err
		}

		next, err := s.run(ctx, st)
		if err != nil {
			return st, fmt.Errorf("stage %s: %w", s.name, err)
		}
		st = next

		p.logger.Debug().Str("stage", s.name).Msg("stage complete")
	}
	return st, nil
}

func signalStage(analyze func(models.State) (models.Signal, error)) StageFunc {
	return func(_ context.Context, st models.State) (models.State, error) {
		sig, err := analyze(st)
		if err != nil {
			return st, err
		}
		return st.WithSignal(sig), nil
	}
}
