package service

/*
 Copyright 2019 - 2025 Crunchy Data Solutions, Inc.
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at
      http://www.apache.org/licenses/LICENSE-2.0
 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	log "github.com/sirupsen/logrus"
	"github.com/theckman/httpforwarded"
	"github.com/vectilehq/vectile/internal/cache"
	"github.com/vectilehq/vectile/internal/conf"
	"github.com/vectilehq/vectile/internal/data"
)

// Service holds process-wide state shared across handlers: the tile cache
// and (via catalogInstance) the active data catalog.
type Service struct {
	cache *cache.TileCache
}

var serviceInstance *Service
var catalogInstance data.Catalog

// Initialize builds the process-wide Service, wiring the tile cache from
// the active configuration.
func Initialize() {
	var tc *cache.TileCache
	if conf.Configuration.Cache.Enabled {
		var err error
		tc, err = cache.NewTileCache(conf.Configuration.Cache.MaxItems, conf.Configuration.Cache.MaxMemoryMB)
		if err != nil {
			log.Warnf("Could not initialize tile cache, running without one: %v", err)
			tc = cache.NewDisabledCache()
		}
	} else {
		tc = cache.NewDisabledCache()
	}

	serviceInstance = &Service{cache: tc}
}

// Serve registers catalog as the active data source and starts the HTTP
// server, blocking until it exits.
func Serve(catalog data.Catalog) {
	catalogInstance = catalog

	router := initRouter(conf.Configuration.Server.BasePath)
	loggedRouter := handlers.CombinedLoggingHandler(log.StandardLogger().Out, router)

	addr := fmt.Sprintf(":%d", conf.Configuration.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      loggedRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Infof("Listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}

// serveURLBase reconstructs the externally-visible scheme://host for the
// request, honoring a reverse proxy's standard Forwarded header (RFC 7239)
// before falling back to X-Forwarded-Proto/Host and finally the request's
// own TLS state and Host.
func serveURLBase(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host := r.Host

	if fwd, ok := r.Header["Forwarded"]; ok {
		if parsed, err := httpforwarded.ParseParameter("proto", fwd); err == nil && len(parsed) > 0 {
			scheme = parsed[0]
		}
		if parsed, err := httpforwarded.ParseParameter("host", fwd); err == nil && len(parsed) > 0 {
			host = parsed[0]
		}
	} else {
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		if fwdHost := r.Header.Get("X-Forwarded-Host"); fwdHost != "" {
			host = fwdHost
		}
	}

	return fmt.Sprintf("%s://%s/", scheme, host)
}
