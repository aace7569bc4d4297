package config

// Environment variable names for configuration.
const (
	// TimeoutEnv bounds the login attempt, e.g. "5m".
	TimeoutEnv = "CANVASLOGIN_TIMEOUT"

	// SurfaceEnv selects the browsing surface ("chrome" or "bridge").
	SurfaceEnv = "CANVASLOGIN_SURFACE"

	// ExecPathEnv is the Chrome/Chromium binary to launch.
	ExecPathEnv = "CANVASLOGIN_EXEC_PATH"

	// BridgeAddrEnv is the listen address of the extension bridge.
	BridgeAddrEnv = "CANVASLOGIN_BRIDGE_ADDR"

	// BridgeTokenEnv is the bearer token the extension must present.
	BridgeTokenEnv = "CANVASLOGIN_BRIDGE_TOKEN"

	// SiteConfigEnv points to a YAML site profile.
	SiteConfigEnv = "CANVASLOGIN_SITE_CONFIG"

	// LogFileEnv is the file diagnostic logs are appended to.
	LogFileEnv = "CANVASLOGIN_LOG_FILE"

	// DebugEnv enables debug logging.
	DebugEnv = "CANVASLOGIN_DEBUG"
)
