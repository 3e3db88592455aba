package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	c "github.com/relloyd/pgshift/constants"
	"github.com/relloyd/pgshift/helper"
	"github.com/relloyd/pgshift/logger"
)

// init will be called first due to the lexical order in which these functions are executed.
// This ensures the value of twelveFactorMode is set such that other init() functions that configure
// Cobra can read the environment variables that stand in for CLI flags.
func init() {
	setupTwelveFactorMode()
}

// setupTwelveFactorMode will enable or disable 12 factor mode based on environment variable.
func setupTwelveFactorMode() {
	mode := os.Getenv(envVarTwelveFactorMode)
	if mode != "" { // if variable for 12factor mode is set and we should read env vars to determine actions...
		twelveFactorMode = true
		lambdaMode = strings.ToLower(mode) == "lambda"
	} else { // else 12factor mode should be off...
		twelveFactorMode = false // explicitly turn off this mode since tests may have turned it on while others require it off.
		lambdaMode = false
	}
}

const (
	envVarTwelveFactorMode = c.EnvVarPrefix + "_" + "12FACTOR_MODE"
	envVarCommand          = c.EnvVarPrefix + "_" + "COMMAND"
	envVarLogLevel         = c.EnvVarPrefix + "_" + "LOG_LEVEL"
	defaultCommand         = "replicate"
)

var (
	twelveFactorMode bool // true if os env var envVarTwelveFactorMode is set
	lambdaMode       bool // true if envVarTwelveFactorMode is set to "lambda"
)

type twelveFactorAction struct {
	runnerFunc func(ctx context.Context) error
}

var twelveFactorActions = map[string]twelveFactorAction{
	"replicate": {runnerFunc: runReplicate},
}

// sensitiveFlags are never written to the log.
var sensitiveFlags = map[string]struct{}{
	"source-dsn":       {},
	"target-dsn":       {},
	"s3-secret":        {},
	"s3-session-token": {},
}

func execute12FactorMode(ctx context.Context, acts map[string]twelveFactorAction) error {
	logLevel := helper.ReadValueFromEnvWithDefault(envVarLogLevel, "info")
	log := logger.NewLogger(c.ServiceName, logLevel, stackDumpOnPanic)
	log.Info("pgshift is running in 12 Factor mode...")
	for _, name := range switchNames() { // for each flag that may be supplied via the environment...
		v, found := helper.ReadValueFromEnvWithFallback(flagNameToEnvVar(name), switches[name].legacyEnv...)
		if found == "" {
			continue
		}
		if _, sensitive := sensitiveFlags[name]; sensitive {
			v = "<obfuscated>"
		}
		log.Debug(found, "=", v)
	}
	command := helper.ReadValueFromEnvWithDefault(envVarCommand, defaultCommand)
	a, ok := acts[command]
	if !ok {
		err := fmt.Errorf("invalid command %q", command)
		log.Error(err.Error())
		return err
	}
	err := a.runnerFunc(ctx)
	if err != nil {
		log.Error("Error: ", err)
	}
	return err
}
