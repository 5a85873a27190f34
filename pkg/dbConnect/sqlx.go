package dbconnect

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/newrelic/go-agent/v3/integrations/nrpq"
)

// DriverName is the instrumented lib/pq driver registered by nrpq
const DriverName = "nrpostgres"

func ConnectSqlx(dbConfig DBConfig) (db *sqlx.DB, err error) {
	return ConnectSqlxContext(context.Background(), dbConfig)
}

// ConnectSqlxContext opens and pings the database, honouring ctx for the ping
func ConnectSqlxContext(ctx context.Context, dbConfig DBConfig) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, DriverName, dbConfig.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres %s:%s: %w", dbConfig.Host, dbConfig.Port, err)
	}
	return db, nil
}
