package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/haitaoz/parastats/internal/config"
	"github.com/haitaoz/parastats/internal/xe"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func TestRunStats_NoAccountsConfigured(t *testing.T) {
	tests := []struct {
		name string
		conf *config.Config
	}{
		{name: "no groups", conf: &config.Config{}},
		{name: "only credential-less accounts", conf: &config.Config{
			Groups: []config.GroupConf{{
				ID:       1,
				Name:     "G1",
				Accounts: []config.AccountConf{{Name: "A", Key: ""}},
			}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewStatsHandler(tt.conf, nil, nil, nil, zap.NewNop())

			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/stats/run",
				strings.NewReader(`{"mode":"total"}`))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			c := e.NewContext(req, httptest.NewRecorder())

			if err := h.RunStats(c); err != xe.ErrNoAccounts {
				t.Fatalf("expected ErrNoAccounts, got %v", err)
			}
		})
	}
}
