package trading

import (
	"context"
	"fmt"
	"time"

	"github.com/phuslu/log"

	"github.com/hweilin/quantmind/internal/agents/debate"
	"github.com/hweilin/quantmind/internal/agents/portfolio"
	"github.com/hweilin/quantmind/internal/agents/researchers"
	"github.com/hweilin/quantmind/internal/agents/riskmgr"
	"github.com/hweilin/quantmind/internal/llm"
	"github.com/hweilin/quantmind/models"
)

// FuseParams feed the fusion stages with precomputed signals. Callers
// that produce their own analyst signals use this instead of Session.
type FuseParams struct {
	Ticker    string
	StartDate time.Time
	EndDate   time.Time
	Portfolio models.Portfolio
	LotSize   int64
	Prices    []models.PriceBar
	Signals   []models.Signal
}

// Fuse runs theses, debate, risk and the final decision over the given
// four signals. No partial decision is produced: any precondition
// failure aborts with an error.
func Fuse(ctx context.Context, svc *llm.Client, logger log.Logger, params FuseParams) (models.Decision, error) {
	if len(params.Signals) != 4 {
		return models.Decision{}, fmt.Errorf("fusion requires exactly 4 signals, got %d", len(params.Signals))
	}

	st := models.NewState(params.Ticker, params.StartDate, params.EndDate, params.Portfolio, params.LotSize)
	st.Prices = params.Prices
	for _, sig := range params.Signals {
		st = st.WithSignal(sig)
	}

	bull, err := researchers.Bull(st)
	if err != nil {
		return models.Decision{}, err
	}
	st.BullThesis = &bull

	bear, err := researchers.Bear(st)
	if err != nil {
		return models.Decision{}, err
	}
	st.BearThesis = &bear

	debateResult, err := debate.NewRoom(svc, logger).Run(ctx, st)
	if err != nil {
		return models.Decision{}, err
	}
	st.Debate = &debateResult

	assessment, err := riskmgr.Assess(st)
	if err != nil {
		return models.Decision{}, err
	}
	st.Risk = &assessment

	return portfolio.NewManager(svc, logger).Decide(ctx, st)
}
