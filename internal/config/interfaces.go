package config

// ManagerInterface is what the CLI needs from a configuration source.
type ManagerInterface interface {
	Load() (*Config, error)
	Save(*Config) error
	Path() string
}

var _ ManagerInterface = (*Manager)(nil)
