package nats

import (
	"encoding/json"
	"fmt"
	"strings"

	"fleet-backoffice/internal/models"
)

// Publisher pushes new audit entries onto the stream. Subjects follow
// audit.{tenant}.{action} so consumers can filter per tenant.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher over an established client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// PublishAuditEntry publishes one audit entry. Errors are returned for the
// caller to log; the entry itself is already durable in the database.
func (p *Publisher) PublishAuditEntry(entry *models.AuditLog) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("nats not connected")
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	subject := fmt.Sprintf("audit.%s.%s", entry.TenantID, strings.ToLower(string(entry.Action)))
	if _, err := p.client.js.PublishAsync(subject, payload); err != nil {
		return fmt.Errorf("failed to publish audit entry: %w", err)
	}
	return nil
}
