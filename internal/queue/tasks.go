package queue

const TypeAutomationEvaluate = "automation:evaluate"

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// AutomationEvaluatePayload carries one forwarded domain event to the
// automation worker. Detail is the JSON envelope produced by the publisher.
type AutomationEvaluatePayload struct {
	Source     string `json:"source"`
	DetailType string `json:"detail_type"`
	Detail     string `json:"detail"`
}
