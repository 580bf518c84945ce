package telemetry

import "codeberg.org/wrenvik/dutymond/internal/errors"

const (
	defaultDirPerm = 0o755
	defaultDBPath  = "/var/lib/dutymond/telemetry.db"
)

type Config struct {
	DBPath string
}

func DefaultConfig() Config {
	return Config{
		DBPath: defaultDBPath,
	}
}

func (c Config) Validate() error {
	if c.DBPath == "" {
		return errors.New(ErrInvalidDBPath)
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}
