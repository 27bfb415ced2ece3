package conf

/*
   Package conf wraps viper for the salesuite toolkit. Configuration is an env
   file (local.env) looked up in a small set of well-known directories; any key
   the file does not track is resolved from the process environment. Once
   loaded, the configuration is treated as immutable for the lifetime of the
   run (tests being the exception, via SetEnv/UnsetEnv).
*/

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

// Instance of the viper struct holding the loaded configuration. Only made
// accessible through GetEnv, LookupEnv, SetEnv and UnsetEnv.
var envVars viper.Viper

const (
	configgood    uint8 = 0
	configbad     uint8 = 1
	noconfigfound uint8 = 2
)

var state uint8 = configgood

func setup(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName("local")
	v.SetConfigType("env")
	v.AddConfigPath(dir)
	// Viper is lazy, force the read and parse of the config file
	if err := v.ReadInConfig(); err != nil {
		state = configbad
	}

	return v
}

func init() {
	locations := []string{
		"shared_files",
		"/etc/salesuite",
	}

	if success, loc := findEnv(locations); success {
		envVars = *setup(loc)
	} else {
		state = noconfigfound
	}
}

// findEnv checks each candidate location for a local.env file and returns the
// first directory that has one.
func findEnv(locations []string) (bool, string) {
	for _, loc := range locations {
		if _, err := os.Stat(loc + "/local.env"); err == nil {
			return true, loc
		}
	}

	return false, ""
}

// GetEnv retrieves the value stored in conf. If it does not exist in the
// config file, the process environment is consulted; "" is returned when the
// key is present in neither.
func GetEnv(key string) string {
	if state == configgood {
		value := envVars.GetString(key)
		if value == "" {
			var ok bool
			value, ok = os.LookupEnv(key)
			if ok {
				// Copy it over to conf to prevent additional OS calls
				envVars.Set(key, value)
			}
		}

		return value
	}

	return os.Getenv(key)
}

// LookupEnv augments os.LookupEnv to look in the viper struct first.
func LookupEnv(key string) (string, bool) {
	if state == configgood {
		if value := envVars.Get(key); value != nil && value != "" {
			return value.(string), true
		}
		if v, exist := os.LookupEnv(key); exist {
			envVars.Set(key, v)
			return v, exist
		}

		return "", false
	}

	return os.LookupEnv(key)
}

// SetEnv adds a key/value into conf. This should only be used by this package
// itself or by tests; the *testing.T parameter is there to make callers
// acknowledge that scope.
func SetEnv(_ *testing.T, key string, value string) error {
	var err error

	if state == configgood {
		envVars.Set(key, value)
	} else {
		err = os.Setenv(key, value)
	}

	return err
}

// UnsetEnv "unsets" a variable. Like SetEnv it is intended for this package
// and tests only.
func UnsetEnv(_ *testing.T, key string) error {
	if state == configgood {
		envVars.Set(key, "")
	}

	// The value may have been copied over from the environment by GetEnv, so
	// clear it there as well.
	return os.Unsetenv(key)
}
