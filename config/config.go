package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ByteMirror/ghostmaze/log"
)

const ConfigFileName = "config.json"

// GetConfigDir returns the path to the application's configuration directory
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config home directory: %w", err)
	}
	return filepath.Join(homeDir, ".ghostmaze"), nil
}

// Config represents the application configuration
type Config struct {
	// MazeWidth and MazeHeight are the maze grid dimensions. Even values are
	// rounded up to odd by the builder.
	MazeWidth  int `json:"maze_width"`
	MazeHeight int `json:"maze_height"`
	// Ghosts is the number of workers spawned at startup.
	Ghosts int `json:"ghosts"`
	// Checkpoints is the number of checkpoint cells placed on the solution path.
	Checkpoints int `json:"checkpoints"`
	// BottleneckCapacity is the number of workers allowed inside a bottleneck
	// cell at once.
	BottleneckCapacity int `json:"bottleneck_capacity"`
	// StepIntervalMs is the pacing delay between worker steps.
	StepIntervalMs int `json:"step_interval_ms"`
	// PublishIntervalMs is the snapshot broadcast cadence.
	PublishIntervalMs int `json:"publish_interval_ms"`
	// TaskCPUMs and TaskIOMs bound the simulated checkpoint task durations.
	TaskCPUMinMs int `json:"task_cpu_min_ms"`
	TaskCPUMaxMs int `json:"task_cpu_max_ms"`
	TaskIOMinMs  int `json:"task_io_min_ms"`
	TaskIOMaxMs  int `json:"task_io_max_ms"`
	// Seed seeds maze generation and task durations. 0 means time-based.
	Seed int64 `json:"seed"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		MazeWidth:          43,
		MazeHeight:         23,
		Ghosts:             3,
		Checkpoints:        2,
		BottleneckCapacity: 1,
		StepIntervalMs:     170,
		PublishIntervalMs:  250,
		TaskCPUMinMs:       300,
		TaskCPUMaxMs:       900,
		TaskIOMinMs:        500,
		TaskIOMaxMs:        1500,
		Seed:               0,
	}
}

// LoadConfig loads the configuration from disk. If it cannot be done, we return
// the default configuration.
func LoadConfig() *Config {
	configDir, err := GetConfigDir()
	if err != nil {
		log.ErrorLog.Printf("failed to get config directory: %v", err)
		return DefaultConfig()
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Create and save default config if file doesn't exist
			defaultCfg := DefaultConfig()
			if saveErr := SaveConfig(defaultCfg); saveErr != nil {
				log.WarningLog.Printf("failed to save default config: %v", saveErr)
			}
			return defaultCfg
		}

		log.WarningLog.Printf("failed to get config file: %v", err)
		return DefaultConfig()
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		log.ErrorLog.Printf("failed to parse config file: %v", err)
		return DefaultConfig()
	}

	return &config
}

// SaveConfig saves the configuration to disk
func SaveConfig(config *Config) error {
	configDir, err := GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}
