package events

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Detail is the decoded form of the document produced by EncodeDetail.
type Detail struct {
	TenantID     uuid.UUID      `json:"tenantId"`
	ResourceID   uuid.UUID      `json:"resourceId"`
	ResourceType string         `json:"resourceType"`
	Timestamp    string         `json:"timestamp"`
	Payload      map[string]any `json:"payload"`
}

func DecodeDetail(detail string) (Detail, error) {
	var d Detail
	if err := json.Unmarshal([]byte(detail), &d); err != nil {
		return Detail{}, fmt.Errorf("decode event detail: %w", err)
	}
	if d.TenantID == uuid.Nil {
		return Detail{}, fmt.Errorf("decode event detail: missing tenantId")
	}
	return d, nil
}
