package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tycoon_ledger/internal/auth"
	"tycoon_ledger/internal/chain"
	"tycoon_ledger/internal/domain"
	"tycoon_ledger/internal/events"
	"tycoon_ledger/internal/host"
	httpserver "tycoon_ledger/internal/http"
	"tycoon_ledger/internal/service"
)

func TestE2E_WithdrawEventStream(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			gw, gwURL := newTokenGateway(t, "5000")
			client := chain.NewClient(gwURL, "")

			hub := events.NewHub()
			h := host.New(backend, auth.SignerAuthorizer{}, hub,
				host.WithSelf("GTREASURY"),
				host.WithRegisterer(prometheus.NewRegistry()),
			)
			issuer, err := auth.NewIssuer("e2e-secret")
			require.NoError(t, err)

			r := gin.New()
			httpserver.RegisterRoutes(r, httpserver.Dependencies{
				Ledger: service.NewLedgerService(h, client, client),
				Store:  backend,
				Issuer: issuer,
				Hub:    hub,
			})
			srv := httptest.NewServer(r)
			defer srv.Close()

			wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/events"
			conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
			require.NoError(t, err)
			defer conn.Close()
			require.Eventually(t, func() bool { return hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

			token, err := issuer.Issue("GOWNER", time.Hour)
			require.NoError(t, err)
			post := func(path, body string) int {
				req, err := http.NewRequest(http.MethodPost, srv.URL+path, strings.NewReader(body))
				require.NoError(t, err)
				req.Header.Set("Authorization", "Bearer "+token)
				req.Header.Set("Content-Type", "application/json")
				res, err := http.DefaultClient.Do(req)
				require.NoError(t, err)
				res.Body.Close()
				return res.StatusCode
			}

			require.Equal(t, http.StatusCreated, post("/api/v1/initialize",
				`{"primary_token":"CTYC","stable_token":"CUSDC","owner":"GOWNER","reward_system":"CREWARD"}`))

			// rejected withdrawals publish nothing
			require.Equal(t, http.StatusUnprocessableEntity, post("/api/v1/treasury/withdraw",
				`{"token":"CTYC","to":"GDEST","amount":"5001"}`))
			require.Equal(t, http.StatusOK, post("/api/v1/treasury/withdraw",
				`{"token":"CUSDC","to":"GDEST","amount":"5000"}`))

			require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
			_, msg, err := conn.ReadMessage()
			require.NoError(t, err)

			var ev events.Event
			require.NoError(t, json.Unmarshal(msg, &ev))
			assert.Equal(t, domain.TopicFundsWithdrawn, ev.Topic)

			var payload domain.FundsWithdrawn
			require.NoError(t, json.Unmarshal(ev.Payload, &payload))
			assert.Equal(t, domain.Address("CUSDC"), payload.Token)
			assert.Equal(t, domain.Address("GDEST"), payload.To)
			assert.Equal(t, "5000", payload.Amount.String())

			gw.mu.Lock()
			assert.Equal(t, 1, gw.transfers)
			gw.mu.Unlock()
		})
	}
}
