package config

import (
	"sync"
)

// Manager handles configuration loading and access in a centralized manner
// Manager 以集中方式处理配置加载与访问
type Manager struct {
	configPath string
	required   bool
	mutex      sync.RWMutex
	config     *Config
}

// NewManager creates a new configuration manager instance.
// When required is set, a missing file is an error.
// NewManager 创建新的配置管理器实例。required 为真时文件缺失视为错误。
func NewManager(configPath string, required bool) *Manager {
	return &Manager{
		configPath: configPath,
		required:   required,
	}
}

// LoadConfig loads the configuration from the specified path
// LoadConfig 从指定路径加载配置
func (cm *Manager) LoadConfig() error {
	config, err := Load(cm.configPath, cm.required)
	if err != nil {
		return err
	}

	cm.mutex.Lock()
	cm.config = config
	cm.mutex.Unlock()
	return nil
}

// SaveConfig saves the current configuration to the specified path
// SaveConfig 将当前配置保存到指定路径
func (cm *Manager) SaveConfig() error {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if cm.config == nil {
		return nil
	}
	return Save(cm.configPath, cm.config)
}

// GetConfig returns a copy of the current configuration, or the defaults before LoadConfig.
// GetConfig 返回当前配置的副本，LoadConfig 之前返回默认配置。
func (cm *Manager) GetConfig() *Config {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if cm.config == nil {
		return Default()
	}

	// Return a copy to prevent external modifications
	cfgCopy := *cm.config
	cfgCopy.Web.AllowedOrigins = append([]string(nil), cm.config.Web.AllowedOrigins...)
	return &cfgCopy
}

// UpdateConfig replaces the current configuration
// UpdateConfig 替换当前配置
func (cm *Manager) UpdateConfig(newConfig *Config) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	cm.config = newConfig
}

// GetConfigPath returns the configuration file path
// GetConfigPath 返回配置文件路径
func (cm *Manager) GetConfigPath() string {
	return cm.configPath
}

// Validate validates the current configuration
// Validate 验证当前配置
func (cm *Manager) Validate() error {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if cm.config == nil {
		return nil
	}
	return cm.config.Validate()
}
