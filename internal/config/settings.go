package config

import (
	"strconv"

	"github.com/increff/noos-service/internal/storage"
)

// Keys for AppSettings rows.
const (
	KeyFileExecutorSize    = "file_executor_size"
	KeyFileExecutorQueue   = "file_executor_queue"
	KeyNoosExecutorSize    = "noos_executor_size"
	KeyNoosExecutorQueue   = "noos_executor_queue"
	KeyTempDir             = "temp_dir"
	KeyActiveParameterSet  = "active_parameter_set"
	KeyHTTPPort            = "http_port"
	KeyMaxRecentTasksLimit = "max_recent_tasks_limit"
	KeyMaxStatusTasksLimit = "max_status_tasks_limit"
)

// Default pool sizing, from §4.2: "fileExecutor (uploads + downloads),
// noosExecutor (algorithm runs), and an implicit default".
const (
	DefaultFileExecutorSize  = 4
	DefaultFileExecutorQueue = 50
	DefaultNoosExecutorSize  = 1
	DefaultNoosExecutorQueue = 5
	DefaultHTTPPort          = 8080
	DefaultRecentTasksLimit  = 50
	MaxRecentTasksLimit      = 200
	DefaultStatusTasksLimit  = 50
	MaxStatusTasksLimit      = 100
)

// ConfigManager is a thin accessor layer over Storage-backed settings,
// grounded on the teacher's internal/config.ConfigManager Get/Set
// pattern, generalized from AI-interface toggles to worker-pool sizing
// and temp-directory configuration.
type ConfigManager struct {
	storage *storage.Storage
}

func NewConfigManager(s *storage.Storage) *ConfigManager {
	return &ConfigManager{storage: s}
}

func (c *ConfigManager) getInt(key string, fallback int) int {
	valStr, err := c.storage.GetString(key)
	if err != nil || valStr == "" {
		return fallback
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return fallback
	}
	return val
}

func (c *ConfigManager) setInt(key string, val int) error {
	return c.storage.SetString(key, strconv.Itoa(val))
}

func (c *ConfigManager) GetFileExecutorSize() int { return c.getInt(KeyFileExecutorSize, DefaultFileExecutorSize) }
func (c *ConfigManager) SetFileExecutorSize(n int) error { return c.setInt(KeyFileExecutorSize, n) }

func (c *ConfigManager) GetFileExecutorQueue() int {
	return c.getInt(KeyFileExecutorQueue, DefaultFileExecutorQueue)
}
func (c *ConfigManager) SetFileExecutorQueue(n int) error { return c.setInt(KeyFileExecutorQueue, n) }

func (c *ConfigManager) GetNoosExecutorSize() int { return c.getInt(KeyNoosExecutorSize, DefaultNoosExecutorSize) }
func (c *ConfigManager) SetNoosExecutorSize(n int) error { return c.setInt(KeyNoosExecutorSize, n) }

func (c *ConfigManager) GetNoosExecutorQueue() int {
	return c.getInt(KeyNoosExecutorQueue, DefaultNoosExecutorQueue)
}
func (c *ConfigManager) SetNoosExecutorQueue(n int) error { return c.setInt(KeyNoosExecutorQueue, n) }

func (c *ConfigManager) GetHTTPPort() int          { return c.getInt(KeyHTTPPort, DefaultHTTPPort) }
func (c *ConfigManager) SetHTTPPort(port int) error { return c.setInt(KeyHTTPPort, port) }

func (c *ConfigManager) GetMaxRecentTasksLimit() int {
	return clamp(c.getInt(KeyMaxRecentTasksLimit, DefaultRecentTasksLimit), 1, MaxRecentTasksLimit)
}

func (c *ConfigManager) GetMaxStatusTasksLimit() int {
	return clamp(c.getInt(KeyMaxStatusTasksLimit, DefaultStatusTasksLimit), 1, MaxStatusTasksLimit)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// GetTempDir returns the directory DownloadBuilder and ErrorTracker
// write artifact files under. Defaults to a fixed relative folder.
func (c *ConfigManager) GetTempDir() string {
	val, err := c.storage.GetString(KeyTempDir)
	if err != nil || val == "" {
		return "noos-artifacts"
	}
	return val
}

func (c *ConfigManager) SetTempDir(path string) error {
	return c.storage.SetString(KeyTempDir, path)
}

// GetActiveParameterSetName returns the configured active parameter
// set name, defaulting to storage.DefaultParameterSetName.
func (c *ConfigManager) GetActiveParameterSetName() string {
	val, err := c.storage.GetString(KeyActiveParameterSet)
	if err != nil || val == "" {
		return storage.DefaultParameterSetName
	}
	return val
}

func (c *ConfigManager) SetActiveParameterSetName(name string) error {
	return c.storage.SetString(KeyActiveParameterSet, name)
}
