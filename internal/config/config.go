// Package config loads and persists the client's settings: which server
// to connect to, how, and under what name. Modeled on
// aluo96078-vkvm/internal/config/config.go's JSON-file-under-the-OS-config-
// dir pattern, with the profile/monitor/coordinator fields specific to
// that tool's multi-computer switching dropped in favor of this client's
// own session parameters.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

// Config is the persisted client configuration.
type Config struct {
	// Name is the client name sent in HelloBack (spec §4.2).
	Name string `json:"name"`

	// ServerAddress is "host:port" for a network endpoint.
	ServerAddress string `json:"server_address"`

	// CryptoEnabled wraps the packet framer in the AES-CFB layer (spec
	// §4.1 step 4) when true.
	CryptoEnabled bool `json:"crypto_enabled"`

	// CryptoKeyHex is the AES key, hex-encoded, 16/24/32 raw bytes.
	CryptoKeyHex string `json:"crypto_key_hex,omitempty"`

	// FilterEnabled is saved and loaded with the rest of the file, but
	// cmd/inputshare-client does not read it: the session it builds has
	// no filter layer whatever this is set to.
	FilterEnabled bool `json:"filter_enabled"`

	// Transport selects the transport implementation: "tcp" or "ws".
	Transport string `json:"transport"`

	// StartOnBoot registers the client to launch at login.
	StartOnBoot bool `json:"start_on_boot"`

	// ReconnectHotkey is the manual "force a reconnect now" shortcut
	// (e.g. "Ctrl+Alt+R").
	ReconnectHotkey string `json:"reconnect_hotkey,omitempty"`

	// DiagAddr is the listen address for the diagnostics HTTP server
	// ("/healthz", "/api/status", "/metrics"); empty disables it.
	DiagAddr string `json:"diag_addr,omitempty"`

	// Debug enables debug-level logging.
	Debug bool `json:"debug"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:            defaultClientName(),
		ServerAddress:   "",
		CryptoEnabled:   false,
		Transport:       "tcp",
		StartOnBoot:     false,
		ReconnectHotkey: "Ctrl+Alt+R",
		DiagAddr:        "127.0.0.1:18080",
		Debug:           false,
	}
}

func defaultClientName() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return "inputshare-client"
	}
	return name
}

// Manager loads and saves Config, guarding the in-memory copy with a
// mutex the same way vkvm's Manager guards its Config.
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *Config
	onChanged  func()
}

// NewManager creates a Manager pointed at the OS config directory,
// starting from DefaultConfig until Load overwrites it.
func NewManager() (*Manager, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return &Manager{
		configPath: configPath,
		config:     DefaultConfig(),
	}, nil
}

func getConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "inputshare")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, "inputshare")
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config", "inputshare")
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// Load reads the configuration from disk, leaving DefaultConfig in place
// if no file exists yet.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.configPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, m.config); err != nil {
		return err
	}
	if m.onChanged != nil {
		m.onChanged()
	}
	return nil
}

// Save writes the configuration to disk.
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.configPath, data, 0644)
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// Set replaces the configuration and notifies the change callback, if any.
func (m *Manager) Set(cfg *Config) {
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	if m.onChanged != nil {
		m.onChanged()
	}
}

// RegisterChangeCallback registers fn to run after every Set and after
// every Load that reads a config file; a Load that finds no file, or
// fails, does not call it.
func (m *Manager) RegisterChangeCallback(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = fn
}
