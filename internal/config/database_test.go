package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseConfig_BuildDSN(t *testing.T) {
	tests := []struct {
		name     string
		config   DatabaseConfig
		expected string
	}{
		{
			name: "basic DSN",
			config: DatabaseConfig{
				Host: "localhost", Port: 4000, User: "root", Password: "password", Database: "test",
			},
			expected: "root:password@tcp(localhost:4000)/test?parseTime=true&loc=UTC",
		},
		{
			name: "empty password",
			config: DatabaseConfig{
				Host: "localhost", Port: 4000, User: "root", Database: "test",
			},
			expected: "root:@tcp(localhost:4000)/test?parseTime=true&loc=UTC",
		},
		{
			name: "tls skip-verify appends tls param",
			config: DatabaseConfig{
				Host: "db.example.com", Port: 3306, User: "admin", Password: "pw", Database: "mydb",
				TLSMode: "skip-verify",
			},
			expected: "admin:pw@tcp(db.example.com:3306)/mydb?parseTime=true&loc=UTC&tls=skip-verify",
		},
		{
			name: "explicit DSN is reused verbatim, params appended",
			config: DatabaseConfig{
				DSN: "root:pw@tcp(host:4000)/db",
			},
			expected: "root:pw@tcp(host:4000)/db?parseTime=true&loc=UTC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.BuildDSN())
		})
	}
}
