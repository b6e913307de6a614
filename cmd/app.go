package cmd

import (
	"fmt"

	"github.com/outbound-caller/cli/cmd/config"
	"github.com/outbound-caller/cli/cmd/dispatch"
	"github.com/outbound-caller/cli/cmd/operator"
	"github.com/outbound-caller/cli/cmd/utils"
)

// appContext is what every subcommand needs: the effective configuration,
// where it came from, and a controller built on it.
type appContext struct {
	cfg        *config.CallerConfig
	configFile string
	envPath    string
	envFound   bool
	runner     utils.CommandRunner
	ctrl       *operator.Controller
}

// loadApp reads caller.yaml and the env file from the effective working
// directory and builds the controller. A malformed env file is reported and
// otherwise ignored.
func loadApp() (*appContext, error) {
	cfg, cfgFile, err := config.Load(utils.GetEffectiveCWD(), configPath)
	if err != nil {
		return nil, err
	}
	if cfgFile != "" {
		utils.LogDebug(fmt.Sprintf("Loaded config from %s", cfgFile))
	}

	envPath := utils.ResolvePath(envFile)
	loader := config.NewEnvLoader(envPath)
	found, err := loader.Load()
	if err != nil {
		utils.OutputWarning("%v\n", err)
	}
	utils.LogDebug(fmt.Sprintf("env file %s found=%v", envPath, found))

	runner := utils.NewExecRunner(cfg.ProbeTimeout())
	ctrl, err := operator.NewController(operator.Options{
		Config: cfg,
		Env:    loader,
		Runner: runner,
	})
	if err != nil {
		return nil, err
	}

	return &appContext{
		cfg:        cfg,
		configFile: cfgFile,
		envPath:    envPath,
		envFound:   found,
		runner:     runner,
		ctrl:       ctrl,
	}, nil
}

func (a *appContext) dispatcher() *dispatch.Dispatcher {
	return dispatch.New(a.cfg.Dispatch, a.runner)
}
