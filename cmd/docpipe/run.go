package main

import (
	"fmt"

	"github.com/fwojciec/docpipe"
	"github.com/fwojciec/docpipe/config"
	"github.com/fwojciec/docpipe/pipeline"
)

// reorganizeTailLines is the stdout tail kept for the maintenance stage.
const reorganizeTailLines = 5

// Run executes the run command. The report is printed even when the run is
// interrupted.
func (c *RunCmd) Run(deps *Dependencies) error {
	p := pipeline.NewPipeline(deps.Runner, deps.Detector, deps.Documents, deps.Cache)
	p.Logger = deps.Logger
	p.Root = deps.Config.DataDir
	p.SiteDefs = deps.Config.SiteDefinitions()
	p.ForceScrape = c.ForceScrape
	if !c.NoServe {
		p.Serve = deps.Config.Serve.Command
	}

	for _, stage := range docpipe.Stages() {
		sc, err := deps.Config.StageConfig(stage)
		if err != nil {
			return err
		}
		p.Stages[stage] = stageConfig(stage, sc, deps.Executable, deps.ConfigPath)
	}

	report := p.Run(deps.Ctx)
	pipeline.WriteReport(deps.Stdout, report)

	if report.Status() == docpipe.RunFailed {
		return fmt.Errorf("pipeline failed: %d of %d stages succeeded", report.Succeeded(), len(report.Stages))
	}
	return nil
}

// stageConfig builds the invocation settings of a stage. Without a
// configured command the stage runs as a docpipe subcommand.
func stageConfig(stage docpipe.Stage, sc config.Stage, exe, configPath string) pipeline.StageConfig {
	args := sc.Command
	if len(args) == 0 {
		args = []string{exe}
		if configPath != "" {
			args = append(args, "--config", configPath)
		}
		args = append(args, string(stage))
	}

	out := pipeline.StageConfig{Args: args, Timeout: sc.Timeout}
	if stage == docpipe.StageReorganize {
		out.TailLines = reorganizeTailLines
	}
	return out
}
