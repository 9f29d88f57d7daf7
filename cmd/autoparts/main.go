package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/autoparts/internal/clock"
	"github.com/smallbiznis/autoparts/internal/config"
	"github.com/smallbiznis/autoparts/internal/observability"
	"github.com/smallbiznis/autoparts/internal/scheduler"
	"github.com/smallbiznis/autoparts/internal/server"
	"github.com/smallbiznis/autoparts/pkg/db"
	"github.com/smallbiznis/autoparts/pkg/lock"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		lock.Module,

		// server.Module pulls in every domain module plus migrations.
		server.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
