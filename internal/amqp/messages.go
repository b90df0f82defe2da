package amqp

import (
	"encoding/json"
	"time"
)

// FeedReplacedMessage announces that the transaction feed was replaced by an
// ingestion. Carries only the row count; the worker reloads the feed from the
// database before recomputing snapshots.
type FeedReplacedMessage struct {
	Count      int       `json:"count"`
	ReplacedAt time.Time `json:"replaced_at"`
}

func NewFeedReplacedMessage(count int) *FeedReplacedMessage {
	return &FeedReplacedMessage{
		Count:      count,
		ReplacedAt: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *FeedReplacedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func FeedReplacedMessageFromJSON(data []byte) (*FeedReplacedMessage, error) {
	var msg FeedReplacedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
