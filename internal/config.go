package internal

import (
	"fmt"

	"github.com/spf13/viper"
)

type SockDBConfig struct {
	AppName string `mapstructure:"app_name"`

	Server struct {
		Addr  string `mapstructure:"addr"`
		Debug bool   `mapstructure:"debug"`
	} `mapstructure:"server"`

	Snapshot struct {
		Path     string `mapstructure:"path"`
		Compress bool   `mapstructure:"compress"`
	} `mapstructure:"snapshot"`

	Notify struct {
		Buffer int `mapstructure:"buffer"`
	} `mapstructure:"notify"`
}

func LoadConfig(path string) (*SockDBConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("app_name", "sockdb")
	v.SetDefault("server.addr", ":5433")
	v.SetDefault("snapshot.path", "sockdb.snapshot")
	v.SetDefault("notify.buffer", 16)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg SockDBConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
