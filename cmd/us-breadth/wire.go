//go:build wireinject
// +build wireinject

package main

import (
	"us-breadth/internal/app"

	"github.com/google/wire"
)

// InitializeApp builds App (Config, DataProvider, SectorSource, TableSaver,
// Calendar) via Wire. Caller must call a.DP.Close() when done.
func InitializeApp(ov app.Overrides) (*app.App, error) {
	wire.Build(
		app.ProvideConfig,
		app.ProvideDataProvider,
		app.ProvideSectorSource,
		app.ProvideTableSaver,
		app.ProvideCalendar,
		wire.Struct(new(app.App), "*"),
	)
	return nil, nil
}
