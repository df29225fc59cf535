package analysts

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/phuslu/log"

	"github.com/hweilin/quantmind/consts"
	"github.com/hweilin/quantmind/internal/llm"
	"github.com/hweilin/quantmind/models"
)

// Completer is the completion-service surface the analysts need.
type Completer interface {
	Complete(ctx context.Context, messages []*schema.Message) (string, error)
}

// recentNewsWindow filters the articles the sentiment score is based on.
const recentNewsWindow = 7 * 24 * time.Hour

const sentimentSystemPrompt = `You are a financial news sentiment analyst. ` +
	`Read the article summaries and grade the overall sentiment toward the company. ` +
	`Reply with a JSON object {"score": <number>} where score ranges from -1.0 ` +
	`(extremely negative) to 1.0 (extremely positive), 0 meaning neutral.`

type sentimentPayload struct {
	Score float64 `json:"score"`
}

// Sentiment grades recent news through the completion service. Scores at
// or beyond ±0.5 produce a directional signal with confidence |score|;
// anything inside the band is neutral with confidence 1−|score|. Service
// failures degrade to a neutral score of 0 and are never fatal.
func Sentiment(ctx context.Context, svc Completer, st models.State, maxNews int, logger log.Logger) models.Signal {
	recent := recentArticles(st.News, maxNews)

	score := 0.0
	if len(recent) > 0 {
		score = newsScore(ctx, svc, st.Ticker, recent, logger)
	} else {
		logger.Warn().Str("ticker", st.Ticker).Msg("no recent news, sentiment neutral")
	}

	var direction models.Direction
	var confidence float64
	switch {
	case score >= 0.5:
		direction = models.Bullish
		confidence = math.Abs(score)
	case score <= -0.5:
		direction = models.Bearish
		confidence = math.Abs(score)
	default:
		direction = models.Neutral
		confidence = 1 - math.Abs(score)
	}

	return models.Signal{
		Agent:      consts.AgentSentiment,
		Direction:  direction,
		Confidence: confidence,
		Reasoning: map[string]string{
			"market_sentiment": fmt.Sprintf("sentiment score %.2f over %d recent articles", score, len(recent)),
			"news_analysis":    headlineSummary(recent),
		},
	}
}

func recentArticles(news []models.NewsArticle, max int) []models.NewsArticle {
	cutoff := time.Now().Add(-recentNewsWindow)

	var recent []models.NewsArticle
	for _, article := range news {
		if article.PublishedAt.Before(cutoff) {
			continue
		}
		recent = append(recent, article)
		if max > 0 && len(recent) >= max {
			break
		}
	}
	return recent
}

func newsScore(ctx context.Context, svc Completer, ticker string, articles []models.NewsArticle, logger log.Logger) float64 {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Recent news about %s:\n\n", ticker)
	for i, article := range articles {
		fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, article.PublishedAt.Format("2006-01-02"), article.Title)
		if article.Content != "" {
			fmt.Fprintf(&sb, "   %s\n", article.Content)
		}
	}

	reply, err := svc.Complete(ctx, []*schema.Message{
		schema.SystemMessage(sentimentSystemPrompt),
		schema.UserMessage(sb.String()),
	})
	if err != nil {
		logger.Warn().Err(err).Msg("sentiment completion failed, defaulting to neutral")
		return 0
	}

	var payload sentimentPayload
	if err := llm.DecodeReply(reply, &payload); err != nil {
		logger.Warn().Err(err).Msg("sentiment reply unparseable, defaulting to neutral")
		return 0
	}

	return clampScore(payload.Score)
}

func clampScore(score float64) float64 {
	if score > 1 {
		return 1
	}
	if score < -1 {
		return -1
	}
	return score
}

func headlineSummary(articles []models.NewsArticle) string {
	if len(articles) == 0 {
		return "no recent news"
	}
	titles := make([]string, 0, len(articles))
	for _, a := range articles {
		titles = append(titles, a.Title)
	}
	return strings.Join(titles, "; ")
}
