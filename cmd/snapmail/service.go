package main

import (
	"fmt"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"github.com/snapmail/snapmail/internal/core"
)

// program adapts the App lifecycle to the kardianos service interface.
type program struct {
	cfgPath string
	app     *core.App
}

// Start must not block; module Start methods spawn their own goroutines.
func (p *program) Start(_ service.Service) error {
	app, _, err := buildApp(p.cfgPath)
	if err != nil {
		return err
	}
	if err := app.Start(); err != nil {
		return err
	}
	p.app = app
	return nil
}

func (p *program) Stop(_ service.Service) error {
	if p.app != nil {
		p.app.Stop()
	}
	return nil
}

func serviceCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:       "service {install|uninstall|start|stop|run}",
		Short:     "Run snapmail under the system service manager",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"install", "uninstall", "start", "stop", "run"},
		RunE: func(_ *cobra.Command, args []string) error {
			action := args[0]

			if cfgPath == "" {
				resolved, err := resolveConfigPath()
				if err != nil {
					return err
				}
				cfgPath = resolved
			}

			svcConfig := &service.Config{
				Name:        "snapmail",
				DisplayName: "snapmail",
				Description: "Daily portal screenshot capture and delivery",
				Arguments:   []string{"service", "run", "--config", cfgPath},
			}

			prg := &program{cfgPath: cfgPath}
			svc, err := service.New(prg, svcConfig)
			if err != nil {
				return err
			}

			if action == "run" {
				return svc.Run()
			}

			if err := service.Control(svc, action); err != nil {
				return fmt.Errorf("service %s: %w", action, err)
			}
			fmt.Printf("service %s: done\n", action)
			return nil
		},
	}

	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to configuration file")
	return cmd
}
