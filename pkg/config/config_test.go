package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ServiceName, cfg.ServiceName)
	assert.Equal(t, DriverPostgres, cfg.DB.Driver)
	assert.Equal(t, 2*time.Second, cfg.Governance.LockTimeout)
	assert.Equal(t, 50.0, cfg.Governance.RequiredQuorum)
	assert.True(t, cfg.Governance.RequireAttendance)
	assert.Equal(t, int32(2), cfg.Governance.PercentPrecision)
}

func TestLoad_GovernanceOverrides(t *testing.T) {
	t.Setenv("GOV_LOCK_TIMEOUT", "750ms")
	t.Setenv("GOV_REQUIRED_QUORUM", "66.5")
	t.Setenv("GOV_REQUIRE_ATTENDANCE", "false")
	t.Setenv("GOV_SUBSCRIBER_BUFFER", "8")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", "/tmp/gov.sqlite")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 750*time.Millisecond, cfg.Governance.LockTimeout)
	assert.Equal(t, 66.5, cfg.Governance.RequiredQuorum)
	assert.False(t, cfg.Governance.RequireAttendance)
	assert.Equal(t, 8, cfg.Governance.SubscriberBuffer)
	assert.Contains(t, cfg.DB.GetDSN(), "file:/tmp/gov.sqlite?")
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"driver":  {"DB_DRIVER", "mysql"},
		"quorum":  {"GOV_REQUIRED_QUORUM", "120"},
		"timeout": {"GOV_LOCK_TIMEOUT", "-1s"},
		"buffer":  {"GOV_SUBSCRIBER_BUFFER", "0"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGetDSN_Postgres(t *testing.T) {
	c := DBConfig{Driver: DriverPostgres, Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", c.GetDSN())
}

func TestGetDSN_SQLiteTakesWriteLockUpFront(t *testing.T) {
	cfg := DBConfig{Driver: DriverSQLite, SQLitePath: "/tmp/assembly.sqlite"}
	dsn := cfg.GetDSN()
	assert.Contains(t, dsn, "file:/tmp/assembly.sqlite?")
	assert.Contains(t, dsn, "_txlock=immediate")
	assert.Contains(t, dsn, "_pragma=busy_timeout(5000)")
}
