package whatsapp

import "encoding/json"

// StatusUpdate is one delivery-status entry from a Cloud API webhook.
type StatusUpdate struct {
	MessageID   string `json:"messageId"`
	RecipientID string `json:"recipientId"`
	Status      string `json:"status"` // sent, delivered, read, failed
	Timestamp   string `json:"timestamp"`
	ErrorCode   int    `json:"errorCode,omitempty"`
	ErrorDetail string `json:"errorDetail,omitempty"`
}

// IncomingMessage is a user reply delivered through the webhook.
type IncomingMessage struct {
	From string `json:"from"`
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// WebhookEvent is the parsed content of one webhook delivery.
type WebhookEvent struct {
	Statuses []StatusUpdate    `json:"statuses,omitempty"`
	Messages []IncomingMessage `json:"messages,omitempty"`
}

// ParseWebhook extracts status updates and incoming messages from a Cloud
// API webhook body. Unknown payloads parse to an empty event, not an error:
// Meta sends event types we do not track.
func ParseWebhook(body []byte) (WebhookEvent, error) {
	var payload struct {
		Entry []struct {
			Changes []struct {
				Value struct {
					Statuses []struct {
						ID          string `json:"id"`
						RecipientID string `json:"recipient_id"`
						Status      string `json:"status"`
						Timestamp   string `json:"timestamp"`
						Errors      []struct {
							Code    int    `json:"code"`
							Message string `json:"message"`
						} `json:"errors"`
					} `json:"statuses"`
					Messages []struct {
						From string `json:"from"`
						Type string `json:"type"`
						Text struct {
							Body string `json:"body"`
						} `json:"text"`
					} `json:"messages"`
				} `json:"value"`
			} `json:"changes"`
		} `json:"entry"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return WebhookEvent{}, err
	}

	var event WebhookEvent
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, s := range change.Value.Statuses {
				update := StatusUpdate{
					MessageID:   s.ID,
					RecipientID: s.RecipientID,
					Status:      s.Status,
					Timestamp:   s.Timestamp,
				}
				if len(s.Errors) > 0 {
					update.ErrorCode = s.Errors[0].Code
					update.ErrorDetail = s.Errors[0].Message
				}
				event.Statuses = append(event.Statuses, update)
			}
			for _, m := range change.Value.Messages {
				event.Messages = append(event.Messages, IncomingMessage{
					From: m.From,
					Type: m.Type,
					Text: m.Text.Body,
				})
			}
		}
	}
	return event, nil
}
