package main

import (
	"github.com/1broseidon/tiletree/internal/config"
	"github.com/1broseidon/tiletree/internal/session"
)

// openService returns the daemon client when a daemon answers on the
// resolved socket, and an in-process store otherwise.
func openService(socketFlag string, inProcess bool, cfg *config.Config) (session.Service, string, error) {
	if !inProcess {
		client, err := newClient(socketFlag)
		if err != nil {
			return nil, "", err
		}
		if client.Ping() {
			return client, "daemon", nil
		}
	}

	store := session.NewStore(
		session.WithLimits(session.Limits{
			MaxTrees:          cfg.GetMaxTrees(),
			MaxWindowsPerTree: cfg.GetMaxWindowsPerTree(),
		}),
		session.WithRootName(cfg.GetRootName()),
	)
	return store, "in-process", nil
}
