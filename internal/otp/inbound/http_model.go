package inbound

import "github.com/vkng1104/otpchain/internal/pkg/valueobject"

type RegisterRequest struct {
	Provider   string `json:"provider"`
	ProviderID string `json:"provider_id"`
	DeviceID   string `json:"device_id,omitempty"`
}

type RegisterResponse struct {
	AuthProviderID string `json:"auth_provider_id"`
	LedgerRef      string `json:"ledger_ref"`
	LogURL         string `json:"log_url,omitempty"`
}

func (RegisterResponse) Message() string {
	return "Identity registered."
}

type GenerateRequest struct {
	Provider        string `json:"provider"`
	ProviderID      string `json:"provider_id"`
	DeviceID        string `json:"device_id,omitempty"`
	DurationSeconds int64  `json:"duration_seconds,omitempty"`
}

type GenerateResponse struct {
	Code      string `json:"code"`
	StartTime int64  `json:"start_time"`
	EndTime   int64  `json:"end_time"`
	LedgerRef string `json:"ledger_ref"`
}

type VerifyRequest struct {
	Code     string              `json:"code"`
	Metadata valueobject.JSONMap `json:"metadata,omitempty"`
}

type VerifyResponse struct {
	AuthProviderID string `json:"auth_provider_id"`
	LedgerRef      string `json:"ledger_ref"`
	LogURL         string `json:"log_url,omitempty"`
}

func (VerifyResponse) Message() string {
	return "Code verified."
}

type WindowUpdateRequest struct {
	AuthProviderID string `json:"auth_provider_id"`
	StartTime      int64  `json:"start_time"`
	EndTime        int64  `json:"end_time"`
}

type WindowUpdateResponse struct {
	StartTime int64  `json:"start_time"`
	EndTime   int64  `json:"end_time"`
	LedgerRef string `json:"ledger_ref"`
}

type BindingDetail struct {
	AuthProviderID string `json:"auth_provider_id"`
	Commitment     string `json:"commitment"`
	Index          uint64 `json:"index"`
	StartTime      int64  `json:"start_time"`
	EndTime        int64  `json:"end_time"`
}

type DetailsResponse struct {
	Bindings []BindingDetail `json:"bindings"`
}

type BlacklistResponse struct {
	LedgerRefs []string `json:"ledger_refs"`
}

type ResetResponse struct {
	LedgerRef string `json:"ledger_ref"`
}
