package integration

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/chatkaro/server/internal/handlers"
	"github.com/chatkaro/server/internal/logger"
	"github.com/chatkaro/server/internal/repository/postgres"
	"github.com/chatkaro/server/internal/service/auth"
	"github.com/chatkaro/server/internal/testutil"
)

// Create db transaction and run the full http stack over that connection
// (one connection cause one transaction)
// The created transaction passed to inner function: so, you can safely use
// testutil.WithTx with it for per subtest isolation
func ServeInTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, as *auth.AuthService)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		storage := postgres.NewStorage(tx)

		as, err := auth.NewService(auth.Config{SecretKey: "test-secret"}, storage)
		require.NoError(t, err, "auth service starting error")

		router := handlers.NewRouter(as, dbpool, logger.NewNoOpLogger())

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, as)
	})
}
