package docket

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hay-kot/docket/internal/core/action"
	"github.com/hay-kot/docket/internal/core/extract"
	"github.com/hay-kot/docket/internal/core/message"
	"github.com/rs/zerolog"
)

// ChatMessage is a single inbound chat turn in a batch request.
type ChatMessage struct {
	MessageID string    `json:"message_id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"ts"`
}

// ProcessRequest is the batch entry point payload: a slice of chat
// turns for one client conversation.
type ProcessRequest struct {
	ClientID       string        `json:"client_id"`
	ConversationID string        `json:"conversation_id"`
	Messages       []ChatMessage `json:"messages"`
}

// ProcessResult reports what a batch did.
type ProcessResult struct {
	ProcessedMessages int    `json:"processed_messages"`
	Counts            Counts `json:"counts"`
	Summary           string `json:"summary"`
}

// Tracker processes message batches end to end: persist the raw
// message, extract a candidate, reconcile it, and mark the message
// handled. Replayed message IDs are skipped.
type Tracker struct {
	messages   message.Store
	extractor  *extract.Extractor
	reconciler *Reconciler
	log        zerolog.Logger
}

// NewTracker creates a Tracker.
func NewTracker(messages message.Store, extractor *extract.Extractor, reconciler *Reconciler, log zerolog.Logger) *Tracker {
	return &Tracker{
		messages:   messages,
		extractor:  extractor,
		reconciler: reconciler,
		log:        log.With().Str("component", "tracker").Logger(),
	}
}

// ProcessChat runs one batch sequentially, message by message, and
// aggregates the reconciliation counts.
func (t *Tracker) ProcessChat(ctx context.Context, req ProcessRequest) (ProcessResult, error) {
	var result ProcessResult

	if req.ClientID == "" {
		return result, fmt.Errorf("client_id is required")
	}

	for _, cm := range req.Messages {
		if cm.MessageID == "" {
			cm.MessageID = uuid.NewString()
		}

		msg := message.Message{
			MessageID:      cm.MessageID,
			ConversationID: req.ConversationID,
			Sender:         cm.Sender,
			Text:           cm.Text,
			ReceivedAt:     cm.Timestamp,
		}

		inserted, err := t.messages.Save(ctx, &msg)
		if err != nil {
			return result, fmt.Errorf("save message %s: %w", cm.MessageID, err)
		}
		if !inserted {
			t.log.Debug().Str("message_id", cm.MessageID).Msg("duplicate message, skipping")
			continue
		}
		result.ProcessedMessages++

		if candidate, ok := t.extractor.Extract(cm.Text, cm.Sender); ok {
			counts, err := t.reconciler.Process(ctx,
				[]action.Candidate{candidate},
				req.ClientID, req.ConversationID, cm.MessageID, cm.Text)
			if err != nil {
				return result, fmt.Errorf("reconcile message %s: %w", cm.MessageID, err)
			}
			result.Counts.Add(counts)
		}

		if err := t.messages.MarkProcessed(ctx, cm.MessageID); err != nil {
			return result, err
		}
	}

	result.Summary = summarize(result.Counts)
	return result, nil
}

func summarize(c Counts) string {
	var parts []string
	if c.Created > 0 {
		parts = append(parts, fmt.Sprintf("Created %d new actions", c.Created))
	}
	if c.Updated > 0 {
		parts = append(parts, fmt.Sprintf("Updated %d existing actions", c.Updated))
	}
	if c.Closed > 0 {
		parts = append(parts, fmt.Sprintf("Closed %d actions", c.Closed))
	}
	if c.Tentative > 0 {
		parts = append(parts, fmt.Sprintf("Created %d tentative actions for review", c.Tentative))
	}
	if len(parts) == 0 {
		return "No actions processed"
	}
	return strings.Join(parts, "; ")
}
