package config

import (
	"github.com/pkg/errors"
	"github.com/zachmann/go-utils/fileutils"

	"github.com/vc-anchorage/anchorage/internal/logger"
)

// loggingConf holds all logging-related configuration under the `logging` key.
//
// YAML example:
//
//	logging:
//	  access:
//	    dir: /var/log/anchorage
//	    stderr: false
//	  internal:
//	    dir: /var/log/anchorage
//	    stderr: false
//	    level: INFO
//	    smart:
//	      enabled: false
//	      dir: /var/log/anchorage/smart
type loggingConf struct {
	logger.Conf `yaml:",inline"`
}

func checkLoggingDirExists(dir string) error {
	if dir != "" && !fileutils.FileExists(dir) {
		return errors.Errorf("logging directory '%s' does not exist", dir)
	}
	return nil
}

func (c *loggingConf) validate() error {
	if err := checkLoggingDirExists(c.Access.Dir); err != nil {
		return err
	}
	if err := checkLoggingDirExists(c.Internal.Dir); err != nil {
		return err
	}
	if c.Internal.Smart.Enabled {
		if c.Internal.Smart.Dir == "" {
			c.Internal.Smart.Dir = c.Internal.Dir
		}
		if err := checkLoggingDirExists(c.Internal.Smart.Dir); err != nil {
			return err
		}
	}
	return nil
}

var defaultLoggingConf = loggingConf{
	Conf: logger.Conf{
		Internal: logger.InternalConf{
			Level: "INFO",
		},
	},
}
