package conf

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvFallsBackToEnvironment(t *testing.T) {
	const key = "SALESUITE_CONF_TEST_FALLBACK"
	os.Setenv(key, "from-environment")
	defer os.Unsetenv(key)

	assert.Equal(t, "from-environment", GetEnv(key))
}

func TestGetEnvMissingKey(t *testing.T) {
	assert.Equal(t, "", GetEnv("SALESUITE_CONF_TEST_DOES_NOT_EXIST"))
}

func TestSetUnsetEnv(t *testing.T) {
	const key = "SALESUITE_CONF_TEST_SET"

	assert.NoError(t, SetEnv(t, key, "some-value"))
	assert.Equal(t, "some-value", GetEnv(key))

	assert.NoError(t, UnsetEnv(t, key))
	assert.Equal(t, "", GetEnv(key))
}

func TestLookupEnv(t *testing.T) {
	const key = "SALESUITE_CONF_TEST_LOOKUP"

	_, ok := LookupEnv(key)
	assert.False(t, ok)

	os.Setenv(key, "present")
	defer os.Unsetenv(key)

	v, ok := LookupEnv(key)
	assert.True(t, ok)
	assert.Equal(t, "present", v)
}
