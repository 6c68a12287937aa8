package payloads

// MediaCleanupPayload представляет задачу на удаление файла из объектного хранилища
// через RabbitMQ.
type MediaCleanupPayload struct {
	Key    string `json:"key"`
	Reason string `json:"reason,omitempty"`
}
