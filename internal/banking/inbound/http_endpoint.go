package inbound

import (
	"github.com/vkng1104/otpchain/internal/banking/usecase"
	"github.com/vkng1104/otpchain/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for accounts, transfers, and
// OTP-confirmed payments.
type HTTPEndpoint struct {
	uc uc
}

// AccountCreate opens an account for the caller.
func (h *HTTPEndpoint) AccountCreate(r *router.Request) (any, error) {
	var req AccountCreateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.AccountCreate(r.Context(), usecase.AccountCreateInput{
		Currency:       req.Currency,
		InitialBalance: req.InitialBalance,
	})
	if err != nil {
		return nil, err
	}

	return AccountResponse{
		AccountID: resp.AccountID,
		Currency:  resp.Currency.String(),
		Balance:   resp.Balance,
		Status:    resp.Status.String(),
	}, nil
}

// Accounts lists the caller's accounts.
func (h *HTTPEndpoint) Accounts(r *router.Request) (any, error) {
	resp, err := h.uc.Accounts(r.Context())
	if err != nil {
		return nil, err
	}

	accounts := make([]AccountResponse, 0, len(resp.Accounts))
	for _, account := range resp.Accounts {
		accounts = append(accounts, AccountResponse{
			AccountID: account.AccountID,
			Currency:  account.Currency.String(),
			Balance:   account.Balance,
			Status:    account.Status.String(),
		})
	}

	return AccountsResponse{Accounts: accounts}, nil
}

// Balance returns the caller's account in one currency.
func (h *HTTPEndpoint) Balance(r *router.Request) (any, error) {
	resp, err := h.uc.Balance(r.Context(), usecase.BalanceInput{
		Currency: r.GetParam("currency"),
	})
	if err != nil {
		return nil, err
	}

	return AccountResponse{
		AccountID: resp.AccountID,
		Currency:  resp.Currency.String(),
		Balance:   resp.Balance,
		Status:    resp.Status.String(),
	}, nil
}

// Transactions returns one page of the caller's movements.
func (h *HTTPEndpoint) Transactions(r *router.Request) (any, error) {
	page, err := r.GetQueryInt32("page")
	if err != nil {
		return nil, err
	}
	size, err := r.GetQueryInt32("size")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.Transactions(r.Context(), usecase.TransactionsInput{
		Currency: r.GetQuery("currency"),
		Type:     r.GetQuery("type"),
		Page:     page,
		Size:     size,
	})
	if err != nil {
		return nil, err
	}

	items := make([]TransactionResponse, 0, len(resp.Items))
	for _, item := range resp.Items {
		items = append(items, TransactionResponse{
			ID:            item.ID,
			Currency:      item.Currency.String(),
			Type:          item.Type.String(),
			Amount:        item.Amount,
			BalanceBefore: item.BalanceBefore,
			BalanceAfter:  item.BalanceAfter,
			ReferenceID:   item.ReferenceID,
			Description:   item.Description,
			CreatedAt:     item.CreatedAt,
		})
	}

	return TransactionsResponse{Items: items, Total: resp.Total}, nil
}

// Transfer moves funds to another user.
func (h *HTTPEndpoint) Transfer(r *router.Request) (any, error) {
	var req TransferRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Transfer(r.Context(), usecase.TransferInput{
		RecipientID: req.RecipientID,
		Currency:    req.Currency,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		return nil, err
	}

	return TransferResponse{
		SenderBalance:    resp.SenderBalance,
		RecipientBalance: resp.RecipientBalance,
	}, nil
}

// PaymentInitiate stages a payment pending OTP confirmation.
func (h *HTTPEndpoint) PaymentInitiate(r *router.Request) (any, error) {
	var req PaymentInitiateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.PaymentInitiate(r.Context(), usecase.PaymentInitiateInput{
		CounterpartID:   req.CounterpartID,
		CounterpartName: req.CounterpartName,
		Currency:        req.Currency,
		Amount:          req.Amount,
		IdempotencyKey:  req.IdempotencyKey,
		Metadata:        req.Metadata,
	})
	if err != nil {
		return nil, err
	}

	return PaymentInitiateResponse{
		TransactionID: resp.TransactionID,
		Status:        resp.Status.String(),
		ExpiresAt:     resp.ExpiresAt,
	}, nil
}

// PaymentVerify confirms a staged payment with a one-time code.
func (h *HTTPEndpoint) PaymentVerify(r *router.Request) (any, error) {
	var req PaymentVerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.PaymentVerify(r.Context(), usecase.PaymentVerifyInput{
		TransactionID: req.TransactionID,
		Code:          req.Code,
		Metadata:      req.Metadata,
	})
	if err != nil {
		return nil, err
	}

	return PaymentVerifyResponse{
		TransactionID: resp.TransactionID,
		Status:        resp.Status.String(),
		Balance:       resp.Balance,
		LedgerRef:     resp.LedgerRef,
		ReceiptKey:    resp.ReceiptKey,
	}, nil
}
