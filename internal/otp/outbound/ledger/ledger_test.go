package ledger

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vkng1104/otpchain/internal/otp/entity"
	"github.com/vkng1104/otpchain/internal/pkg/chain"
	"github.com/vkng1104/otpchain/internal/pkg/instrument"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"}, instrument.NewNoop())
}

func TestClientVerify(t *testing.T) {
	key := chain.Keccak256([]byte("binding"))

	t.Run("Accepted", func(t *testing.T) {
		// Arrange
		var gotBody map[string]any
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/identities/"+key.Hex()+"/verify" {
				t.Errorf("unexpected path %q", r.URL.Path)
			}
			if r.Header.Get("Authorization") != "Bearer test-key" {
				t.Errorf("missing bearer token")
			}
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"tx_ref":  "0xabc",
				"log_url": "https://ledger.example/tx/0xabc",
			})
		})

		// Act
		receipt, err := client.Verify(t.Context(), key, 7, entity.VerifyPayload{
			Username: "alice",
			Service:  "0xservice",
		}, "sig")

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if receipt.Ref != "0xabc" {
			t.Fatalf("expected receipt ref 0xabc, got %q", receipt.Ref)
		}
		if gotBody["index"] != float64(7) || gotBody["signature"] != "sig" {
			t.Fatalf("request body missing index or signature: %v", gotBody)
		}
	})

	t.Run("ConflictIsReplay", func(t *testing.T) {
		// Arrange
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":{"code":"REPLAY","message":"index consumed"}}`))
		})

		// Act
		_, err := client.Verify(t.Context(), key, 7, entity.VerifyPayload{}, "sig")

		// Assert
		if !errors.Is(err, entity.ErrLedgerReplay) {
			t.Fatalf("expected replay error, got %v", err)
		}
	})

	t.Run("BadRequestIsRejection", func(t *testing.T) {
		// Arrange
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"error":{"code":"REJECTED","message":"commitment mismatch"}}`))
		})

		// Act
		_, err := client.Verify(t.Context(), key, 7, entity.VerifyPayload{}, "sig")

		// Assert
		if !errors.Is(err, entity.ErrLedgerRejected) {
			t.Fatalf("expected rejection error, got %v", err)
		}
	})

	t.Run("ServerErrorIsUnavailable", func(t *testing.T) {
		// Arrange
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		// Act
		_, err := client.Verify(t.Context(), key, 7, entity.VerifyPayload{}, "sig")

		// Assert
		if !errors.Is(err, entity.ErrLedgerUnavailable) {
			t.Fatalf("expected unavailable error, got %v", err)
		}
	})
}

func TestClientGetDetailsRetries(t *testing.T) {
	// Arrange
	key := chain.Keccak256([]byte("binding"))
	attempts := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"commitment_value": chain.Keccak256([]byte("commit")).Hex(),
			"index":            4,
			"start_time":       100,
			"end_time":         400,
		})
	})

	// Act
	details, err := client.GetDetails(t.Context(), key)

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if details.Index != 4 || details.Window.End != 400 {
		t.Fatalf("unexpected details %+v", details)
	}
}
