package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/XavierBriggs/fortuna/services/goal-analysis/pkg/models"
	"github.com/redis/go-redis/v9"
)

// DefaultStream is the Redis stream finished analyses are appended to
const DefaultStream = "goalanalysis.analyses"

// StreamPublisher publishes finished analyses to a Redis stream
type StreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewStreamPublisher creates a new stream publisher. maxLen > 0 trims the
// stream approximately to that many entries.
func NewStreamPublisher(client *redis.Client, stream string, maxLen int64) *StreamPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &StreamPublisher{
		client: client,
		stream: stream,
		maxLen: maxLen,
	}
}

// PublishAnalysis appends one analysis result to the stream
func (p *StreamPublisher) PublishAnalysis(ctx context.Context, result *models.AnalysisResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling analysis: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: StreamValues(result, data),
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("publishing analysis %s: %w", result.ID, err)
	}
	return nil
}

// StreamValues builds the stream entry fields for a result
func StreamValues(result *models.AnalysisResult, data []byte) map[string]interface{} {
	return map[string]interface{}{
		"data":        string(data),
		"run_id":      result.ID,
		"strategy":    result.Strategy,
		"home_id":     result.Teams[0].Team.ID,
		"home_status": result.Teams[0].Status,
		"away_id":     result.Teams[1].Team.ID,
		"away_status": result.Teams[1].Status,
	}
}
