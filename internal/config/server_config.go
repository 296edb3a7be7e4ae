package config

import (
	"time"

	"github.com/rs/zerolog"
	"github/chapool/hw-bridge/internal/bridge/bus"
	"github/chapool/hw-bridge/internal/device"
)

type EchoServer struct {
	Debug                          bool
	ListenAddress                  string
	HideInternalServerErrorDetails bool
	BaseURL                        string
	EnableCORSMiddleware           bool
	EnableLoggerMiddleware         bool
	EnableRecoverMiddleware        bool
	EnableRequestIDMiddleware      bool
	EnableTrailingSlashMiddleware  bool
	EnableSecureMiddleware         bool
}

type LoggerServer struct {
	Level              zerolog.Level
	RequestLevel       zerolog.Level
	LogRequestBody     bool
	LogRequestHeader   bool
	LogResponseBody    bool
	LogResponseHeader  bool
	PrettyPrintConsole bool
}

type ManagementServer struct {
	Secret                string `json:"-"`
	MetricsPath           string
	EnableMetrics         bool
	EnableRuntimeMetrics  bool
	ProbeReadinessTimeout time.Duration
}

type BridgeServer struct {
	// BoundaryTimeout bounds one call as seen from the caller side (bus.Client).
	BoundaryTimeout time.Duration
	// EnforceIframeOrigin rejects iframe messages from origins outside the trusted set.
	EnforceIframeOrigin bool
	Mnemonic            string `json:"-"`
	Passphrase          string `json:"-"`
	PromptPassphrase    bool
	// KeystoreFile, when set, replaces Mnemonic with the mnemonic sealed in this
	// file; Passphrase unlocks it and doubles as the seed passphrase.
	KeystoreFile string
	RosterFile   string
	Roster       []device.Settings
}

type Server struct {
	Echo       EchoServer
	Logger     LoggerServer
	Management ManagementServer
	Bridge     BridgeServer
}

// DefaultServiceConfigFromEnv returns the server config as parsed from environment variables
// and their respective defaults defined below.
// We don't expect that ENV_VARs change while we are running our application or our tests
// (and it would be a bad thing to do anyways with parallel testing).
// Do NOT use os.Setenv / os.Unsetenv in tests utilizing DefaultServiceConfigFromEnv()!
func DefaultServiceConfigFromEnv() Server {
	v := newEnv()

	roster := device.DefaultRoster()
	if file := v.GetString("ROSTER_FILE"); file != "" {
		loaded, err := LoadRoster(file)
		if err != nil {
			logConfigError(err, "Failed to load device roster, using default roster")
		} else {
			roster = loaded
		}
	}

	return Server{
		Echo: EchoServer{
			Debug:                          v.GetBool("ECHO_DEBUG"),
			ListenAddress:                  v.GetString("ECHO_LISTEN_ADDRESS"),
			HideInternalServerErrorDetails: v.GetBool("ECHO_HIDE_INTERNAL_SERVER_ERROR_DETAILS"),
			BaseURL:                        v.GetString("ECHO_BASE_URL"),
			EnableCORSMiddleware:           v.GetBool("ECHO_ENABLE_CORS_MIDDLEWARE"),
			EnableLoggerMiddleware:         v.GetBool("ECHO_ENABLE_LOGGER_MIDDLEWARE"),
			EnableRecoverMiddleware:        v.GetBool("ECHO_ENABLE_RECOVER_MIDDLEWARE"),
			EnableRequestIDMiddleware:      v.GetBool("ECHO_ENABLE_REQUEST_ID_MIDDLEWARE"),
			EnableTrailingSlashMiddleware:  v.GetBool("ECHO_ENABLE_TRAILING_SLASH_MIDDLEWARE"),
			EnableSecureMiddleware:         v.GetBool("ECHO_ENABLE_SECURE_MIDDLEWARE"),
		},
		Logger: LoggerServer{
			Level:              v.level("LOGGER_LEVEL"),
			RequestLevel:       v.level("LOGGER_REQUEST_LEVEL"),
			LogRequestBody:     v.GetBool("LOGGER_LOG_REQUEST_BODY"),
			LogRequestHeader:   v.GetBool("LOGGER_LOG_REQUEST_HEADER"),
			LogResponseBody:    v.GetBool("LOGGER_LOG_RESPONSE_BODY"),
			LogResponseHeader:  v.GetBool("LOGGER_LOG_RESPONSE_HEADER"),
			PrettyPrintConsole: v.GetBool("LOGGER_PRETTY_PRINT_CONSOLE"),
		},
		Management: ManagementServer{
			Secret:                v.GetString("MANAGEMENT_SECRET"),
			MetricsPath:           v.GetString("MANAGEMENT_METRICS_PATH"),
			EnableMetrics:         v.GetBool("MANAGEMENT_ENABLE_METRICS"),
			EnableRuntimeMetrics:  v.GetBool("MANAGEMENT_ENABLE_RUNTIME_METRICS"),
			ProbeReadinessTimeout: v.GetDuration("MANAGEMENT_PROBE_READINESS_TIMEOUT"),
		},
		Bridge: BridgeServer{
			BoundaryTimeout:     v.GetDuration("BOUNDARY_TIMEOUT"),
			EnforceIframeOrigin: v.GetBool("ENFORCE_IFRAME_ORIGIN"),
			Mnemonic:            v.GetString("DEVICE_MNEMONIC"),
			Passphrase:          v.GetString("DEVICE_PASSPHRASE"),
			PromptPassphrase:    v.GetBool("DEVICE_PROMPT_PASSPHRASE"),
			KeystoreFile:        v.GetString("DEVICE_KEYSTORE_FILE"),
			RosterFile:          v.GetString("ROSTER_FILE"),
			Roster:              roster,
		},
	}
}

func defaults() map[string]any {
	return map[string]any{
		"ECHO_DEBUG":                              false,
		"ECHO_LISTEN_ADDRESS":                     ":8080",
		"ECHO_HIDE_INTERNAL_SERVER_ERROR_DETAILS": true,
		"ECHO_BASE_URL":                           "http://localhost:8080",
		"ECHO_ENABLE_CORS_MIDDLEWARE":             true,
		"ECHO_ENABLE_LOGGER_MIDDLEWARE":           true,
		"ECHO_ENABLE_RECOVER_MIDDLEWARE":          true,
		"ECHO_ENABLE_REQUEST_ID_MIDDLEWARE":       true,
		"ECHO_ENABLE_TRAILING_SLASH_MIDDLEWARE":   true,
		"ECHO_ENABLE_SECURE_MIDDLEWARE":           true,

		"LOGGER_LEVEL":                zerolog.DebugLevel.String(),
		"LOGGER_REQUEST_LEVEL":        zerolog.DebugLevel.String(),
		"LOGGER_LOG_REQUEST_BODY":     false,
		"LOGGER_LOG_REQUEST_HEADER":   false,
		"LOGGER_LOG_RESPONSE_BODY":    false,
		"LOGGER_LOG_RESPONSE_HEADER":  false,
		"LOGGER_PRETTY_PRINT_CONSOLE": false,

		"MANAGEMENT_SECRET":                  "mgmt-secret",
		"MANAGEMENT_METRICS_PATH":            "/metrics",
		"MANAGEMENT_ENABLE_METRICS":          true,
		"MANAGEMENT_ENABLE_RUNTIME_METRICS":  false,
		"MANAGEMENT_PROBE_READINESS_TIMEOUT": 4 * time.Second,

		"BOUNDARY_TIMEOUT":         bus.ContextLoadTimeout,
		"ENFORCE_IFRAME_ORIGIN":    true,
		"DEVICE_MNEMONIC":          DevelopmentMnemonic,
		"DEVICE_PASSPHRASE":        "",
		"DEVICE_PROMPT_PASSPHRASE": false,
		"DEVICE_KEYSTORE_FILE":     "",
		"ROSTER_FILE":              "",
	}
}
