package conf

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
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// DatabaseConfig holds the DuckDB connection and table-discovery settings.
type DatabaseConfig struct {
	DatabasePath     string
	TableIncludes    []string
	TableExcludes    []string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  int // seconds
	ConnMaxIdleTime  int // seconds
}

// ServerConfig holds HTTP-server-level settings.
type ServerConfig struct {
	HTTPPort   int
	Debug      bool
	AssetsPath string
	DisableUi  bool
	BasePath   string
}

// MetadataConfig holds metadata surfaced in the UI and TileJSON responses.
type MetadataConfig struct {
	Title       string
	Description string
	Attribution string
}

// CacheConfig holds the tile-cache and cache-admin-API settings.
type CacheConfig struct {
	Enabled          bool
	MaxItems         int
	MaxMemoryMB      int
	BrowserCacheMaxAge int
	DisableApi       bool
	ApiKey           string
}

// LayerConfig describes the pipeline configuration for one named vector
// tile layer: its source query, simplification policy, and the named
// transform/sort functions applied to its features.
type LayerConfig struct {
	Name                   string
	Queries                map[int]string // zoom threshold -> SQL query template
	Srid                   int
	Clip                   bool
	Simplify               bool
	SimplifyUntil          int
	SimplifyBeforeIntersect bool
	SuppressSimplification []int
	GeometryTypes          []string
	TransformFns           []string
	SortFn                 string
}

// Config is the root application configuration, populated by viper from
// defaults, an optional TOML file, and environment variables (in increasing
// precedence).
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Metadata MetadataConfig
	Cache    CacheConfig
	Layers   map[string]LayerConfig
}

// Configuration is the process-wide, already-initialized configuration.
var Configuration Config

// InitConfig loads configuration from (in increasing precedence) compiled-in
// defaults, an optional TOML file at filename, and environment variables
// prefixed with AppConfig.EnvPrefix.
func InitConfig(filename string, debug bool) {
	v := viper.New()

	v.SetDefault("Database.TableIncludes", []string{})
	v.SetDefault("Database.TableExcludes", []string{})
	v.SetDefault("Database.MaxOpenConns", 8)
	v.SetDefault("Database.MaxIdleConns", 4)
	v.SetDefault("Database.ConnMaxLifetime", 3600)
	v.SetDefault("Database.ConnMaxIdleTime", 600)
	v.SetDefault("Server.HTTPPort", 9000)
	v.SetDefault("Server.Debug", false)
	v.SetDefault("Server.AssetsPath", "./assets")
	v.SetDefault("Server.DisableUi", false)
	v.SetDefault("Metadata.Title", AppConfig.Name)
	v.SetDefault("Cache.Enabled", true)
	v.SetDefault("Cache.MaxItems", 10000)
	v.SetDefault("Cache.MaxMemoryMB", 256)
	v.SetDefault("Cache.BrowserCacheMaxAge", 3600)
	v.SetDefault("Cache.DisableApi", true)

	if filename != "" {
		v.SetConfigFile(filename)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			log.Warnf("Could not read config file %s: %v", filename, err)
		}
	}

	v.SetEnvPrefix(AppConfig.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// viper needs explicit BindEnv calls for nested keys with no config-file
	// or SetDefault entry so AutomaticEnv can find them.
	_ = v.BindEnv("Database.TableIncludes")
	_ = v.BindEnv("Database.TableExcludes")
	_ = v.BindEnv("Database.DatabasePath")
	_ = v.BindEnv("Server.HTTPPort")
	_ = v.BindEnv("Server.Debug")
	_ = v.BindEnv("Cache.ApiKey")

	cfg := Config{}
	cfg.Database.DatabasePath = v.GetString("Database.DatabasePath")
	cfg.Database.TableIncludes = splitCommaEnvAware(v, "Database.TableIncludes")
	cfg.Database.TableExcludes = splitCommaEnvAware(v, "Database.TableExcludes")
	cfg.Database.MaxOpenConns = v.GetInt("Database.MaxOpenConns")
	cfg.Database.MaxIdleConns = v.GetInt("Database.MaxIdleConns")
	cfg.Database.ConnMaxLifetime = v.GetInt("Database.ConnMaxLifetime")
	cfg.Database.ConnMaxIdleTime = v.GetInt("Database.ConnMaxIdleTime")

	cfg.Server.HTTPPort = v.GetInt("Server.HTTPPort")
	cfg.Server.Debug = v.GetBool("Server.Debug")
	cfg.Server.AssetsPath = v.GetString("Server.AssetsPath")
	cfg.Server.DisableUi = v.GetBool("Server.DisableUi")
	cfg.Server.BasePath = v.GetString("Server.BasePath")

	cfg.Metadata.Title = v.GetString("Metadata.Title")
	cfg.Metadata.Description = v.GetString("Metadata.Description")
	cfg.Metadata.Attribution = v.GetString("Metadata.Attribution")

	cfg.Cache.Enabled = v.GetBool("Cache.Enabled")
	cfg.Cache.MaxItems = v.GetInt("Cache.MaxItems")
	cfg.Cache.MaxMemoryMB = v.GetInt("Cache.MaxMemoryMB")
	cfg.Cache.BrowserCacheMaxAge = v.GetInt("Cache.BrowserCacheMaxAge")
	cfg.Cache.DisableApi = v.GetBool("Cache.DisableApi")
	cfg.Cache.ApiKey = v.GetString("Cache.ApiKey")

	if debug {
		cfg.Server.Debug = true
	}

	Configuration = cfg
}

// splitCommaEnvAware returns a string-list config value. Env-var values are
// split on commas (matching how a flat VECTILE_DATABASE_TABLEINCLUDES=a,b,c
// is expressed); values already parsed from a TOML array are passed through.
func splitCommaEnvAware(v *viper.Viper, key string) []string {
	raw := v.Get(key)
	switch val := raw.(type) {
	case nil:
		return []string{}
	case []string:
		return val
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, toString(item))
		}
		return out
	case string:
		if val == "" {
			return []string{}
		}
		return strings.Split(val, ",")
	default:
		return []string{}
	}
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// DumpConfig logs a summary of the active configuration at Info level.
func DumpConfig() {
	log.Infof("Database path: %s", Configuration.Database.DatabasePath)
	log.Infof("Table includes: %v", Configuration.Database.TableIncludes)
	log.Infof("Table excludes: %v", Configuration.Database.TableExcludes)
	log.Infof("HTTP port: %d", Configuration.Server.HTTPPort)
	log.Infof("UI disabled: %v", Configuration.Server.DisableUi)
	log.Infof("Cache enabled: %v", Configuration.Cache.Enabled)
	log.Infof("Configured layers: %d", len(Configuration.Layers))
}
