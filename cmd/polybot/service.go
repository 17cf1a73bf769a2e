package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/kardianos/service"
	"github.com/polybotservice/polybot/pkg/app"
	"github.com/spf13/cobra"
)

const serviceName = "polybot"

// program adapts app.Run to the service manager's Start/Stop callbacks.
type program struct {
	params app.RunParams

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan error
}

func (p *program) Start(_ service.Service) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan error, 1)
	go func() { p.done <- app.Run(ctx, p.params) }()
	return nil
}

func (p *program) Stop(_ service.Service) error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	return <-done
}

// serviceConfig describes the installed unit. The service manager runs
// "polybot start --config <abs path>".
func serviceConfig(cfgPath string) (*service.Config, error) {
	args := []string{"start"}
	if cfgPath != "" {
		abs, err := filepath.Abs(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("service: resolving config path: %w", err)
		}
		args = append(args, "--config", abs)
	}
	return &service.Config{
		Name:        serviceName,
		DisplayName: "polybot",
		Description: "Telegram photo filter bot",
		Arguments:   args,
	}, nil
}

func newService(params app.RunParams) (service.Service, error) {
	cfg, err := serviceConfig(params.ConfigPath)
	if err != nil {
		return nil, err
	}
	return service.New(&program{params: params}, cfg)
}

// underServiceManager reports whether the process was launched by the
// system service manager rather than from a terminal.
func underServiceManager() bool {
	return !service.Interactive()
}

func runAsService(params app.RunParams) error {
	svc, err := newService(params)
	if err != nil {
		return err
	}
	return svc.Run()
}

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage polybot as a system service",
	}
	cmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file used by the service")

	for _, action := range []string{"install", "uninstall", "start", "stop", "restart"} {
		cmd.AddCommand(&cobra.Command{
			Use:   action,
			Short: "Service " + action,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfgPath, _ := cmd.Flags().GetString("config")
				svc, err := newService(app.RunParams{ConfigPath: cfgPath})
				if err != nil {
					return err
				}
				if err := service.Control(svc, action); err != nil {
					return fmt.Errorf("service %s: %w", action, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "service %s: ok\n", action)
				return nil
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the service status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newService(app.RunParams{})
			if err != nil {
				return err
			}
			st, err := svc.Status()
			if err != nil && !errors.Is(err, service.ErrNotInstalled) {
				return fmt.Errorf("service status: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), statusText(st, err))
			return nil
		},
	})
	return cmd
}

func statusText(st service.Status, err error) string {
	if errors.Is(err, service.ErrNotInstalled) {
		return "not installed"
	}
	switch st {
	case service.StatusRunning:
		return "running"
	case service.StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
