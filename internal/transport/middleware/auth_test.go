package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/heartmarshall/salesdesk-backend/internal/domain"
	"github.com/heartmarshall/salesdesk-backend/pkg/ctxutil"
)

//go:generate moq -out principal_validator_mock_test.go -pkg middleware . principalValidator

func rejectingValidator(t *testing.T) *principalValidatorMock {
	return &principalValidatorMock{
		ValidateAccessTokenFunc: func(token string) (domain.Principal, error) {
			t.Error("ValidateAccessToken should not be called")
			return domain.Principal{}, errors.New("should not be called")
		},
	}
}

func TestAuth_ValidToken(t *testing.T) {
	want := domain.Principal{ID: uuid.New(), Name: "Ana", Role: domain.RoleSeller}
	validator := &principalValidatorMock{
		ValidateAccessTokenFunc: func(token string) (domain.Principal, error) {
			if token == "valid-token" {
				return want, nil
			}
			return domain.Principal{}, errors.New("invalid token")
		},
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := ctxutil.PrincipalFromCtx(r.Context())
		if !ok {
			t.Error("expected principal in context")
			return
		}
		if got != want {
			t.Errorf("expected principal %+v, got %+v", want, got)
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()

	Auth(validator)(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	validator := &principalValidatorMock{
		ValidateAccessTokenFunc: func(token string) (domain.Principal, error) {
			return domain.Principal{}, errors.New("invalid token")
		},
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called for invalid token")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid-token")
	rec := httptest.NewRecorder()

	Auth(validator)(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAuth_Anonymous(t *testing.T) {
	headers := map[string]string{
		"no header":    "",
		"basic auth":   "Basic dXNlcjpwYXNz",
		"empty bearer": "Bearer ",
	}

	for name, header := range headers {
		t.Run(name, func(t *testing.T) {
			validator := rejectingValidator(t)
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if _, ok := ctxutil.PrincipalFromCtx(r.Context()); ok {
					t.Error("expected no principal in context")
				}
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()

			Auth(validator)(handler).ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
			}
			if len(validator.ValidateAccessTokenCalls()) > 0 {
				t.Error("ValidateAccessToken should not be called for anonymous request")
			}
		})
	}
}

func TestAuth_QueryTokenForWebsocket(t *testing.T) {
	wsSeller := uuid.New()
	validator := &principalValidatorMock{
		ValidateAccessTokenFunc: func(token string) (domain.Principal, error) {
			return domain.Principal{ID: wsSeller, Role: domain.RoleSeller}, nil
		},
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := ctxutil.PrincipalIDFromCtx(r.Context()); id != wsSeller {
			t.Errorf("expected %s, got %s", wsSeller, id)
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/live/quotes?access_token=tok", nil)
	rec := httptest.NewRecorder()

	Auth(validator)(handler).ServeHTTP(rec, req)

	calls := validator.ValidateAccessTokenCalls()
	if len(calls) != 1 || calls[0].Token != "tok" {
		t.Fatalf("expected one call with token 'tok', got %+v", calls)
	}
}

func TestExtractBearerToken_Cases(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"empty header", "", ""},
		{"bearer with token", "Bearer valid-token", "valid-token"},
		{"bearer lowercase", "bearer valid-token", "valid-token"},
		{"bearer mixed case", "BEARER valid-token", "valid-token"},
		{"basic auth", "Basic dXNlcjpwYXNz", ""},
		{"bearer no space", "Bearertoken", ""},
		{"bearer empty token", "Bearer ", ""},
		{"just bearer", "Bearer", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			got := extractBearerToken(req)
			if got != tc.want {
				t.Errorf("extractBearerToken(%q) = %q, want %q", tc.header, got, tc.want)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	cases := []struct {
		name      string
		principal *domain.Principal
		want      int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"seller", &domain.Principal{ID: uuid.New(), Role: domain.RoleSeller}, http.StatusForbidden},
		{"admin", &domain.Principal{ID: uuid.New(), Role: domain.RoleAdmin}, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPut, "/settings/followup", nil)
			if tc.principal != nil {
				req = req.WithContext(ctxutil.WithPrincipal(req.Context(), *tc.principal))
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Errorf("expected status %d, got %d", tc.want, rec.Code)
			}
		})
	}
}
