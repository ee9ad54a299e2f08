// Package server wires the emulator's collaborators together and
// registers the HTTP routes.
package server

import (
	"fmt"
	"net/http"

	"github.com/hashicorp/go-hclog"

	"github.com/hearthly/hearth/internal/api"
	"github.com/hearthly/hearth/internal/auth"
	"github.com/hearthly/hearth/internal/config"
	"github.com/hearthly/hearth/internal/version"
	"github.com/hearthly/hearth/pkg/resourcepath"
	"github.com/hearthly/hearth/pkg/store"
)

// Server contains the server configuration and collaborators.
type Server struct {
	// Config is the config for the server.
	Config *config.Config

	// Logger is the logger for the server.
	Logger hclog.Logger

	// Store is the document table.
	Store *store.Store

	// Auth is the authentication emulator, nil when disabled.
	Auth *auth.Service
}

// Routes returns the mux serving the emulator's REST surface.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/v1/projects/", api.DocumentsHandler(s.Config, s.Logger, s.Store))

	if s.Auth != nil {
		mux.Handle("/v1/accounts:signUp", api.SignUpHandler(s.Auth, s.Logger))
		mux.Handle("/v1/accounts:signInWithPassword", api.SignInHandler(s.Auth, s.Logger))
		mux.Handle("/v1/accounts:lookup", api.LookupHandler(s.Auth, s.Logger))
		mux.Handle("/v1/accounts:delete", api.DeleteAccountHandler(s.Auth, s.Logger))
	}

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, "hearth %s\n\ndocuments: /v1/%s\naccounts:  /v1/accounts:signUp\nhealth:    /healthz\n",
			version.Version, resourcepath.Root(s.Config.ProjectID, s.Config.DatabaseID))
	})

	return mux
}
