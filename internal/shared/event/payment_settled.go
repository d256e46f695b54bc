package event

const PaymentSettledDestination string = "payment_settled"
const PaymentSettledDestinationConsumerNotification string = "payment_settled_notification"

type PaymentSettledMessage struct {
	TransactionID   string `json:"transaction_id"`
	UserID          string `json:"user_id"`
	CounterpartID   string `json:"counterpart_id"`
	CounterpartName string `json:"counterpart_name"`
	Currency        string `json:"currency"`
	Amount          int64  `json:"amount"`
	LedgerRef       string `json:"ledger_ref"`
	ReceiptKey      string `json:"receipt_key"`
}
