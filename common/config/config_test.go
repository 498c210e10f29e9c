package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseConfig_GetDSN(t *testing.T) {
	c := &DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "secret", Database: "somnomat", SSLMode: "disable"}

	assert.Equal(t, "host=db port=5432 user=u password=secret dbname=somnomat sslmode=disable", c.GetDSN())
	assert.NotContains(t, c.GetDSNForLog(), "secret")
}

func TestDatabaseConfig_LoadFromEnv(t *testing.T) {
	os.Setenv("TESTDB_HOST", "pg")
	os.Setenv("TESTDB_PORT", "6000")
	os.Setenv("TESTDB_MAX_CONNS", "not-a-number")
	defer func() {
		os.Unsetenv("TESTDB_HOST")
		os.Unsetenv("TESTDB_PORT")
		os.Unsetenv("TESTDB_MAX_CONNS")
	}()

	c := &DatabaseConfig{Host: "localhost", Port: 5432, User: "postgres", MaxConns: 10}
	c.LoadFromEnv("TESTDB")

	assert.Equal(t, "pg", c.Host)
	assert.Equal(t, 6000, c.Port)
	assert.Equal(t, "postgres", c.User)
	assert.Equal(t, 10, c.MaxConns)
}

func TestRedisConfig_LoadFromEnv(t *testing.T) {
	os.Setenv("TESTREDIS_ADDR", "redis:6380")
	os.Setenv("TESTREDIS_DB", "3")
	defer func() {
		os.Unsetenv("TESTREDIS_ADDR")
		os.Unsetenv("TESTREDIS_DB")
	}()

	c := &RedisConfig{Addr: "localhost:6379"}
	c.LoadFromEnv("TESTREDIS")

	assert.Equal(t, "redis:6380", c.Addr)
	assert.Equal(t, 3, c.DB)
	assert.Equal(t, "", c.Password)
}

func TestMQTTConfig_LoadFromEnv(t *testing.T) {
	os.Setenv("TESTMQTT_BROKER", "tcp://broker:1883")
	os.Setenv("TESTMQTT_QOS", "5")
	defer func() {
		os.Unsetenv("TESTMQTT_BROKER")
		os.Unsetenv("TESTMQTT_QOS")
	}()

	c := &MQTTConfig{Broker: "tcp://localhost:1883", ClientID: "id", QoS: 1}
	c.LoadFromEnv("TESTMQTT")

	assert.Equal(t, "tcp://broker:1883", c.Broker)
	assert.Equal(t, "id", c.ClientID)
	assert.Equal(t, byte(1), c.QoS)
}
