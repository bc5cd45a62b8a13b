package app

import (
	"database/sql"

	"github.com/go-chi/oauth"

	"github.com/pak-it/checkin/config"
	"github.com/pak-it/checkin/poll"
	"github.com/pak-it/checkin/roster"
	"github.com/pak-it/checkin/settings"
	"github.com/pak-it/checkin/store"
)

// App bundles the shared collaborators handed to every controller.
type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config

	Employees *store.Employees
	Responses *store.Responses
	Settings  *settings.Store
	Poll      *poll.Service
	Reporter  *roster.Reporter
}

func New(db *sql.DB, bearerServer *oauth.BearerServer, cfg config.Config) App {
	employees := &store.Employees{DB: db}
	responses := &store.Responses{DB: db}
	settingsStore := &settings.Store{DB: db}

	return App{
		DB:           db,
		BearerServer: bearerServer,
		Config:       cfg,
		Employees:    employees,
		Responses:    responses,
		Settings:     settingsStore,
		Poll: &poll.Service{
			Employees: employees,
			Responses: responses,
			Settings:  settingsStore,
		},
		Reporter: &roster.Reporter{
			Employees: employees,
			Responses: responses,
			Settings:  settingsStore,
		},
	}
}
