package cli

import (
	"github.com/turtacn/Perennis/internal/monitor"
	"github.com/turtacn/Perennis/internal/orchestrator"
	"github.com/turtacn/Perennis/internal/rcon"
	"github.com/turtacn/Perennis/internal/staleness"
	"github.com/turtacn/Perennis/internal/supervisor"
	"github.com/turtacn/Perennis/internal/workshop"
	"github.com/turtacn/Perennis/pkg/logger"
	"github.com/turtacn/Perennis/pkg/protocol"
)

// loadConfig reads the config file and brings up logging and metrics.
func loadConfig(path string) (*protocol.Config, error) {
	cfg, err := protocol.Load(path)
	if err != nil {
		return nil, err
	}
	logger.InitLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	return cfg, nil
}

func newChannel(cfg *protocol.Config) *rcon.Channel {
	return rcon.NewChannel(cfg.RCON.Address, cfg.RCON.Password, cfg.RCONTimeout())
}

func newReconciler(cfg *protocol.Config) *staleness.Reconciler {
	client := workshop.NewClient(cfg.WorkshopURL(), cfg.WorkshopRate(), cfg.RequestTimeout())
	oracle := staleness.NewOracle(client, cfg.Paths.SnapshotFile)
	items := func() ([]string, error) { return workshop.ReadItems(cfg.Server.IniPath) }
	return staleness.NewReconciler(items, oracle, cfg.Paths.SnapshotFile)
}

// newController wires every collaborator the daemon needs.
func newController(cfg *protocol.Config) *orchestrator.Controller {
	monitor.InitMetrics(cfg.Observability.MetricsAddr)
	return orchestrator.NewController(
		orchestrator.OptionsFromConfig(cfg),
		newChannel(cfg),
		supervisor.New(supervisor.OptionsFromConfig(cfg)),
		newReconciler(cfg),
	)
}

// Personal.AI order the ending
