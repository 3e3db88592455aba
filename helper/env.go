package helper

import (
	"fmt"
	"os"
)

// ReadValueFromEnv will read the env var called name and populate the supplied val.
// If the env var is not set then return an error and leave val untouched.
func ReadValueFromEnv(name string, val *string) error {
	v := os.Getenv(name)
	if v != "" { // if the environment variable was set...
		*val = v // update the callers value
		return nil
	} else { // else there was no environment variable set...
		return fmt.Errorf("value for environment variable %v not found", name)
	}
}

// ReadValueFromEnvWithDefault will read the value of name from the environment into v.
// If it's not set then it will apply the supplied defaultValue and return v.
func ReadValueFromEnvWithDefault(name string, defaultValue string) (v string) {
	_ = ReadValueFromEnv(name, &v)
	if v == "" && defaultValue != "" { // if the environment variable is not set and we have been given a default value...
		v = defaultValue
	}
	return
}

// ReadValueFromEnvWithFallback reads name from the environment and falls back to each of the
// legacy names in turn. It returns the first value found and the name of the variable that held it.
func ReadValueFromEnvWithFallback(name string, legacyNames ...string) (v string, found string) {
	for _, n := range append([]string{name}, legacyNames...) {
		if err := ReadValueFromEnv(n, &v); err == nil {
			return v, n
		}
	}
	return "", ""
}
