package utils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/CMSgov/casemix-app/conf"
)

// FromEnv always returns a string that is either a non-empty value from the configuration named by key or
// the string otherwise
func FromEnv(key, otherwise string) string {
	s := conf.GetEnv(key)
	if s == "" {
		logrus.Infof(`No %s value; using %s instead.`, key, otherwise)
		return otherwise
	}
	return s
}

func GetEnvInt(varName string, defaultVal int) int {
	v := conf.GetEnv(varName)
	if v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultVal
}

// ParseShape reads a table shape written as ROWSxCOLS, e.g. "153x4".
// An empty string yields 0x0, which disables shape checks.
func ParseShape(s string) (rows, cols int, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, nil
	}

	parts := strings.Split(strings.ToLower(s), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid shape '%s': expected ROWSxCOLS", s)
	}
	if rows, err = strconv.Atoi(parts[0]); err != nil || rows < 0 {
		return 0, 0, fmt.Errorf("invalid row count in shape '%s'", s)
	}
	if cols, err = strconv.Atoi(parts[1]); err != nil || cols < 0 {
		return 0, 0, fmt.Errorf("invalid column count in shape '%s'", s)
	}
	return rows, cols, nil
}

// ShapeFromEnv returns the shape configured under key, or the defaults when the key is unset.
func ShapeFromEnv(key string, defaultRows, defaultCols int) (rows, cols int, err error) {
	v, ok := conf.LookupEnv(key)
	if !ok {
		return defaultRows, defaultCols, nil
	}
	return ParseShape(v)
}
