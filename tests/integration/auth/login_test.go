package auth

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	authsvc "github.com/chatkaro/server/internal/service/auth"
	"github.com/chatkaro/server/internal/testutil"
	"github.com/chatkaro/server/tests/integration"
)

func Test_AuthLogin(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	integration.ServeInTx(pg.Pool, t, func(tx pgx.Tx, srvURL string, as *authsvc.AuthService) {
		signup := func(t *testing.T) {
			t.Helper()
			_, _, err := as.Signup(t.Context(), "nk@example.com", "NK", "StrongEnoughPassword")
			require.NoError(t, err)
		}

		t.Run("login ok", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				signup(t)

				data := `{"email": "nk@example.com", "password": "StrongEnoughPassword"}`
				resp, body := send(t, http.MethodPost, srvURL+LoginURL, data)

				require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)

				var parsed struct {
					AccessToken string `json:"access_token"`
					TokenType   string `json:"token_type"`
				}
				require.NoError(t, json.Unmarshal([]byte(body), &parsed))
				require.NotEmpty(t, parsed.AccessToken)
				require.Equal(t, "bearer", parsed.TokenType)

				cookie := findRefreshCookie(t, resp)
				require.NotEmpty(t, cookie.Value)
				require.True(t, cookie.HttpOnly)
			})
		})

		t.Run("wrong credentials fail the same way", func(t *testing.T) {
			tests := []struct {
				name string
				data string
			}{
				{
					name: "wrong password",
					data: `{"email": "nk@example.com", "password": "NotThePassword"}`,
				},
				{
					name: "unknown email",
					data: `{"email": "nobody@example.com", "password": "StrongEnoughPassword"}`,
				},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					testutil.WithTx(tx, t, func(_ pgx.Tx) {
						signup(t)

						resp, body := send(t, http.MethodPost, srvURL+LoginURL, tt.data)

						// The body must not reveal whether the email exists
						require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", body)
						require.JSONEq(t, `
							{
								"error": "service_error",
								"message": "Invalid credentials"
							}`, body)
						require.Empty(t, resp.Cookies(), "no cookie should be set on failed login")
					})
				})
			}
		})
	})
}
