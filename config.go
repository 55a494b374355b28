package flowgate

import "fmt"

// Config is a serialisable representation of the engine configuration. It can
// be populated from JSON, YAML, environment variables, etc. The zero-value is
// useful – all nested fields inherit their package defaults.
type Config struct {
	Notification NotificationConfig `json:"notification" yaml:"notification"`
	Storage      StorageConfig      `json:"storage" yaml:"storage"`
}

// NotificationConfig tunes the in-memory notification queue.
type NotificationConfig struct {
	MaxRetries   int  `json:"maxRetries" yaml:"maxRetries"`
	RetryDelayMs int  `json:"retryDelayMs" yaml:"retryDelayMs"`
	QueueBuffer  int  `json:"queueBuffer" yaml:"queueBuffer"`
	DeadLetter   bool `json:"deadLetter" yaml:"deadLetter"`
}

// StorageConfig selects the persistence backend; an empty path keeps
// templates, instances and history in memory.
type StorageConfig struct {
	Path string `json:"path" yaml:"path"`
}

// DefaultConfig returns a Config populated with the package defaults. Callers
// may modify the returned struct before passing it to NewFromConfig.
func DefaultConfig() *Config {
	return &Config{
		Notification: NotificationConfig{
			MaxRetries:   3,
			RetryDelayMs: 100,
			QueueBuffer:  100,
			DeadLetter:   true,
		},
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Notification.MaxRetries < 0 {
		return fmt.Errorf("notification.maxRetries must be >= 0")
	}
	if c.Notification.RetryDelayMs < 0 {
		return fmt.Errorf("notification.retryDelayMs must be >= 0")
	}
	if c.Notification.QueueBuffer < 0 {
		return fmt.Errorf("notification.queueBuffer must be >= 0")
	}
	return nil
}
