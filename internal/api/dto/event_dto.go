package dto

// PublishEventRequest payload for the test publish endpoint.
type PublishEventRequest struct {
	Payload map[string]any `json:"payload"`
}
