package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChain(t *testing.T) {
	t.Run("OuterFirst", func(t *testing.T) {
		// Arrange
		var order []string
		tag := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}
		h := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			order = append(order, "handler")
		})

		// Act
		Chain(h, tag("outer"), tag("inner")).
			ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		// Assert
		want := []string{"outer", "inner", "handler"}
		if len(order) != len(want) {
			t.Fatalf("expected %v, got %v", want, order)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, order)
			}
		}
	})

	t.Run("NoMiddleware", func(t *testing.T) {
		// Arrange
		called := false
		h := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })

		// Act
		Chain(h).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		// Assert
		if !called {
			t.Fatal("expected the handler to run unchanged")
		}
	})
}
