package event

const TransferCompletedDestination string = "transfer_completed"
const TransferCompletedDestinationConsumerNotification string = "transfer_completed_notification"

type TransferCompletedMessage struct {
	SenderID    string `json:"sender_id"`
	RecipientID string `json:"recipient_id"`
	Currency    string `json:"currency"`
	Amount      int64  `json:"amount"`
	ReferenceID string `json:"reference_id,omitempty"`
}
