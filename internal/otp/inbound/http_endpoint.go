package inbound

import (
	"github.com/vkng1104/otpchain/internal/otp/usecase"
	"github.com/vkng1104/otpchain/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for the hash-chain OTP workflows.
type HTTPEndpoint struct {
	uc uc
}

// Register binds the caller's identity to the commitment ledger.
func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Register(r.Context(), usecase.RegisterInput{
		Provider:   req.Provider,
		ProviderID: req.ProviderID,
		DeviceID:   req.DeviceID,
	})
	if err != nil {
		return nil, err
	}

	return RegisterResponse{
		AuthProviderID: resp.AuthProviderID,
		LedgerRef:      resp.LedgerRef,
		LogURL:         resp.LogURL,
	}, nil
}

// Generate issues a short-lived numeric code.
func (h *HTTPEndpoint) Generate(r *router.Request) (any, error) {
	var req GenerateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Generate(r.Context(), usecase.GenerateInput{
		Provider:        req.Provider,
		ProviderID:      req.ProviderID,
		DeviceID:        req.DeviceID,
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		return nil, err
	}

	return GenerateResponse{
		Code:      resp.Code,
		StartTime: resp.StartTime,
		EndTime:   resp.EndTime,
		LedgerRef: resp.LedgerRef,
	}, nil
}

// Verify redeems a previously generated code.
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Verify(r.Context(), usecase.VerifyInput{
		Code:     req.Code,
		Metadata: req.Metadata,
	})
	if err != nil {
		return nil, err
	}

	return VerifyResponse{
		AuthProviderID: resp.AuthProviderID,
		LedgerRef:      resp.LedgerRef,
		LogURL:         resp.LogURL,
	}, nil
}

// WindowUpdate moves the redeem window of one binding.
func (h *HTTPEndpoint) WindowUpdate(r *router.Request) (any, error) {
	var req WindowUpdateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.WindowUpdate(r.Context(), usecase.WindowUpdateInput{
		AuthProviderID: req.AuthProviderID,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
	})
	if err != nil {
		return nil, err
	}

	return WindowUpdateResponse{
		StartTime: resp.StartTime,
		EndTime:   resp.EndTime,
		LedgerRef: resp.LedgerRef,
	}, nil
}

// Details lists the ledger state of the caller's bindings.
func (h *HTTPEndpoint) Details(r *router.Request) (any, error) {
	resp, err := h.uc.Details(r.Context())
	if err != nil {
		return nil, err
	}

	bindings := make([]BindingDetail, 0, len(resp.Bindings))
	for _, b := range resp.Bindings {
		bindings = append(bindings, BindingDetail{
			AuthProviderID: b.AuthProviderID,
			Commitment:     b.Commitment.Hex(),
			Index:          b.Index,
			StartTime:      b.Window.Start,
			EndTime:        b.Window.End,
		})
	}

	return DetailsResponse{Bindings: bindings}, nil
}

// Blacklist suspends every binding of the target user.
func (h *HTTPEndpoint) Blacklist(r *router.Request) (any, error) {
	resp, err := h.uc.Blacklist(r.Context(), usecase.BlacklistInput{UserID: r.GetParam("id")})
	if err != nil {
		return nil, err
	}

	return BlacklistResponse{LedgerRefs: resp.LedgerRefs}, nil
}

// Unblacklist lifts a prior suspension.
func (h *HTTPEndpoint) Unblacklist(r *router.Request) (any, error) {
	resp, err := h.uc.Unblacklist(r.Context(), usecase.BlacklistInput{UserID: r.GetParam("id")})
	if err != nil {
		return nil, err
	}

	return BlacklistResponse{LedgerRefs: resp.LedgerRefs}, nil
}

// Reset wipes the target user's bindings so registration can start over.
func (h *HTTPEndpoint) Reset(r *router.Request) (any, error) {
	resp, err := h.uc.Reset(r.Context(), usecase.ResetInput{UserID: r.GetParam("id")})
	if err != nil {
		return nil, err
	}

	return ResetResponse{LedgerRef: resp.LedgerRef}, nil
}
