package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/studio-schedule-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "studio", Password: "secret", Name: "yoga_studio", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=studio password=secret dbname=yoga_studio sslmode=disable", dsn)
}
