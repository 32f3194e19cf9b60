package config

const (
	defaultLogDir                  = "~/.local/share/parkour/logs"
	defaultAPIBind                 = "127.0.0.1:7519"
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
	defaultLogRetentionDays        = 14
	defaultNotifyRequestTimeout    = 10
	defaultNtfyServer              = "https://ntfy.sh"
	defaultNotifyLifecycleEnabled  = true
	defaultNotifyWatchErrorEnabled = true
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Watch: Watch{},
		Notifications: Notifications{
			NtfyServer:     defaultNtfyServer,
			RequestTimeout: defaultNotifyRequestTimeout,
			Lifecycle:      defaultNotifyLifecycleEnabled,
			WatchErrors:    defaultNotifyWatchErrorEnabled,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
