package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
)

// DeadLetter is a report job the pool gave up on. Entries sit in
// "dlq:{queue}" until someone inspects or replays them by hand.
type DeadLetter struct {
	Queue    string          `json:"queue"`
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Raw      string          `json:"raw,omitempty"` // set when the envelope itself was unreadable
	Reason   string          `json:"reason"`
	Attempts int             `json:"attempts"`
	FailedAt time.Time       `json:"failed_at"`
}

func deadLetterKey(queue string) string { return "dlq:" + queue }

// deadLetter parks dl and records the outcome. The job has already left the
// live queue, so a failed push can only be logged.
func (p *pool) deadLetter(ctx context.Context, dl DeadLetter) {
	dl.FailedAt = time.Now().UTC()
	p.rec.JobFinished(dl.Type, "dead_letter")

	data, err := json.Marshal(dl)
	if err == nil {
		err = p.rdb.LPush(context.WithoutCancel(ctx), deadLetterKey(dl.Queue), data).Err()
	}
	if err != nil {
		log.Error().Err(err).Str("queue", dl.Queue).Str("type", dl.Type).Msg("report job lost: dead letter push failed")
		return
	}
	log.Warn().
		Str("queue", dl.Queue).
		Str("type", dl.Type).
		Str("reason", dl.Reason).
		Int("attempts", dl.Attempts).
		Msg("report job dead-lettered")
}
