package dbconnect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	cfg := DBConfig{Host: "db", Port: "5432", Dbuser: "crm", Dbpassword: "pw", Dbname: "salesgrid"}
	assert.Equal(t, "host=db port=5432 user=crm password=pw dbname=salesgrid sslmode=disable TimeZone=UTC", cfg.DSN())

	cfg.Sslmode = "require"
	assert.Contains(t, cfg.DSN(), "sslmode=require")
}
