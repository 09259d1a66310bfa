package conf

/*
   conf wraps viper for the casemix pipeline. Values are read from a local.env
   file when one is found in a known location; any key missing from that file
   falls through to the process environment. Deployed environments ship no
   local.env, so everything comes from the environment there.

   Assumptions:
   1. The configuration file is an env file named local.env
   2. Once loaded, the configuration is immutable for the life of the process
      (tests excepted, see SetEnv)
*/

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

// Holds the loaded local.env. Only reachable through GetEnv, LookupEnv, SetEnv and UnsetEnv.
var envVars viper.Viper

const (
	configgood    uint8 = 0
	configbad     uint8 = 1
	noconfigfound uint8 = 2
)

var state uint8 = configgood

// CASEMIX_CONF_DIR, when set, is checked before the default locations.
const confDirKey = "CASEMIX_CONF_DIR"

func setup(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName("local")
	v.SetConfigType("env")
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		state = configbad
	} else {
		state = configgood
	}

	return v
}

func init() {
	locations := []string{
		os.Getenv(confDirKey),
		"shared_files/decrypted",
		"/go/src/github.com/CMSgov/casemix-app/shared_files/decrypted",
		"/etc/casemix",
	}

	if loc, ok := findEnv(locations); ok {
		envVars = *setup(loc)
	} else {
		state = noconfigfound
	}
}

// findEnv returns the first location holding a local.env file.
func findEnv(locations []string) (string, bool) {
	for _, loc := range locations {
		if loc == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(loc, "local.env")); err == nil {
			return loc, true
		}
	}
	return "", false
}

// GetEnv returns the value for key, or "" when it is not set anywhere.
func GetEnv(key string) string {
	if state != configgood {
		return os.Getenv(key)
	}

	value := envVars.GetString(key)
	if value == "" {
		// Not in local.env; fall back to the environment and cache the result.
		var ok bool
		if value, ok = os.LookupEnv(key); ok {
			envVars.Set(key, value)
		}
	}
	return value
}

// LookupEnv behaves like os.LookupEnv but consults local.env first.
func LookupEnv(key string) (string, bool) {
	if state != configgood {
		return os.LookupEnv(key)
	}

	if value := envVars.GetString(key); value != "" {
		return value, true
	}
	if v, ok := os.LookupEnv(key); ok {
		envVars.Set(key, v)
		return v, true
	}
	return "", false
}

// SetEnv overrides key for the rest of the process. The *testing.T parameter
// restricts it to tests and this package.
func SetEnv(protect *testing.T, key string, value string) error {
	if state == configgood {
		envVars.Set(key, value)
		return nil
	}
	return os.Setenv(key, value)
}

// UnsetEnv clears key from both the loaded file and the environment.
func UnsetEnv(protect *testing.T, key string) error {
	if state == configgood {
		envVars.Set(key, "")
	}
	return os.Unsetenv(key)
}
