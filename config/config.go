// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.


package config

import (
	"reflect"
	"strings"

	"github.com/spf13/viper"

	"github.com/cardinalhq/isamples-export/internal/cloudstorage"
	"github.com/cardinalhq/isamples-export/internal/dataserver"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "ISAMPLES_EXPORT"

// Config aggregates configuration for the application.
// Sections other than Export and DuckDB are owned by their packages.
type Config struct {
	Export  ExportConfig        `mapstructure:"export"`
	Server  dataserver.Config   `mapstructure:"server"`
	DuckDB  DuckDBConfig        `mapstructure:"duckdb"`
	Publish cloudstorage.Target `mapstructure:"publish"`
}

// Load reads configuration from an optional config.yaml in the working
// directory and from environment variables. Environment variables use the
// prefix "ISAMPLES_EXPORT" and the dot character in keys is replaced by an
// underscore. For example, "export.server_url" becomes
// "ISAMPLES_EXPORT_EXPORT_SERVER_URL".
func Load() (*Config, error) {
	cfg := &Config{
		Export: DefaultExportConfig(),
		Server: dataserver.Config{
			Port:     dataserver.DefaultPort,
			DataPath: ".",
		},
		DuckDB: DefaultDuckDBConfig(),
	}

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)
	_ = v.ReadInConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(append([]string{}, parts...), tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}
