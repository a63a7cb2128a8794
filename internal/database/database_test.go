package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/karulmca/ScurmBoard/internal/config"
)

func TestDSN(t *testing.T) {
	cfg := &config.Config{
		DBHost:     "db",
		DBPort:     "5433",
		DBUser:     "scrum",
		DBPassword: "secret",
		DBName:     "scrumboard",
		DBSSLMode:  "require",
	}
	assert.Equal(t, "host=db port=5433 user=scrum password=secret dbname=scrumboard sslmode=require", DSN(cfg))
}
