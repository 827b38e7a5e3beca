package config

import (
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// WorkspaceDefaults are the branding values used until a settings record is
// saved in the database.
type WorkspaceDefaults struct {
	AppName string `mapstructure:"appName"`
	LogoURL string `mapstructure:"logoUrl"`
}

func DefaultWorkspace() WorkspaceDefaults {
	return WorkspaceDefaults{
		AppName: "ERP TAO",
		LogoURL: "",
	}
}

type WorkspaceDefaultsHolder struct {
	current atomic.Value // holds WorkspaceDefaults
}

// NewWorkspaceDefaultsHolder reads workspace.yml and keeps it hot-reloaded so a
// volume-mounted config can change branding without a restart.
func NewWorkspaceDefaultsHolder() (*WorkspaceDefaultsHolder, error) {
	v := viper.New()

	v.SetConfigName("workspace")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/taoerp/config")
	v.AddConfigPath("/etc/taoerp")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TAOERP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultWorkspace()
		v.SetDefault("workspace.appName", defaults.AppName)
		v.SetDefault("workspace.logoUrl", defaults.LogoURL)
	}

	var cfg WorkspaceDefaults
	if err := v.UnmarshalKey("workspace", &cfg); err != nil {
		return nil, err
	}
	if cfg.AppName == "" {
		cfg.AppName = DefaultWorkspace().AppName
	}

	holder := &WorkspaceDefaultsHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated WorkspaceDefaults
		if err := v.UnmarshalKey("workspace", &updated); err != nil {
			log.Printf("[workspace-config] reload failed: %v", err)
			return
		}
		if updated.AppName == "" {
			updated.AppName = DefaultWorkspace().AppName
		}
		holder.current.Store(updated)
		log.Printf("[workspace-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *WorkspaceDefaultsHolder) Get() WorkspaceDefaults {
	return h.current.Load().(WorkspaceDefaults)
}

// StaticWorkspaceDefaults wraps fixed values in a holder with no file backing.
func StaticWorkspaceDefaults(cfg WorkspaceDefaults) *WorkspaceDefaultsHolder {
	holder := &WorkspaceDefaultsHolder{}
	holder.current.Store(cfg)
	return holder
}
