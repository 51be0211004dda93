// Package archive records broadcast chat lines through the work queue.
package archive

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/pkg/errors"

	"classroom/internal/classroom"
	"classroom/internal/presence"
	"classroom/internal/queue"
)

// MessageType tags chat lines on the queue.
const MessageType = "chat"

// publishTimeout bounds each enqueue; slower lines are dropped.
const publishTimeout = 250 * time.Millisecond

type record struct {
	Username string    `json:"username"`
	Content  string    `json:"content"`
	SentAt   time.Time `json:"sent_at"`
}

// Publisher returns a hub OnChat callback that enqueues every chat frame.
func Publisher(q queue.Queue, now func() time.Time) func(presence.ChatFrame) {
	if now == nil {
		now = time.Now
	}
	return func(f presence.ChatFrame) {
		body, err := json.Marshal(record{Username: f.Username, Content: f.Content, SentAt: now().UTC()})
		if err != nil {
			log.Printf("encode chat line: %v", err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := q.Publish(ctx, queue.Message{Type: MessageType, Body: body}); err != nil {
			log.Printf("archive chat line dropped: %v", err)
		}
	}
}

// Appender stores chat lines.
type Appender interface {
	ArchiveChat(ctx context.Context, e classroom.ChatEntry) error
}

// Run consumes chat lines from q into dst until ctx is done.
func Run(ctx context.Context, q queue.Queue, dst Appender) error {
	messages, err := q.Consume(ctx)
	if err != nil {
		return errors.Wrap(err, "consume chat queue")
	}
	stored := 0
	for msg := range messages {
		if msg.Type != MessageType {
			continue
		}
		var rec record
		if err := json.Unmarshal(msg.Body, &rec); err != nil {
			log.Printf("drop malformed chat line: %v", err)
			continue
		}
		entry := classroom.ChatEntry{Username: rec.Username, Content: rec.Content, SentAt: rec.SentAt}
		if err := dst.ArchiveChat(ctx, entry); err != nil {
			log.Printf("archive chat line from %s: %v", rec.Username, err)
			continue
		}
		stored++
	}
	log.Printf("chat archiver stopped after %d lines", stored)
	return nil
}
