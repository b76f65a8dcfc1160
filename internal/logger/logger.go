// Package logger initializes the application loggers. Internal logging goes
// through logrus; the access log is exposed as an io.Writer for the fiber
// logger middleware.
package logger

import (
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// LoggerConf holds configuration related to a single log output
type LoggerConf struct {
	Dir    string `yaml:"dir"`
	StdErr bool   `yaml:"stderr"`
}

// InternalConf configures application-internal logging.
// Level accepts standard log levels (e.g. DEBUG, INFO, WARN, ERROR).
// When Smart logging is enabled, errors are duplicated to a dedicated
// directory.
type InternalConf struct {
	LoggerConf `yaml:",inline"`
	Level      string    `yaml:"level"`
	Smart      SmartConf `yaml:"smart"`
}

// SmartConf enables and configures 'smart' logging. If Enabled, error logs
// are also written to Dir.
type SmartConf struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// Conf holds all logging-related configuration
type Conf struct {
	Access   LoggerConf   `yaml:"access"`
	Internal InternalConf `yaml:"internal"`
}

var accessWriter io.Writer = os.Stdout

// Init initializes the loggers according to the passed configuration
func Init(conf Conf) {
	log.SetFormatter(
		&log.TextFormatter{
			FullTimestamp: true,
		},
	)
	level, err := log.ParseLevel(conf.Internal.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetOutput(writerFor(conf.Internal.LoggerConf, "anchorage.log"))
	if conf.Internal.Smart.Enabled {
		initSmartLogger(conf.Internal.Smart.Dir)
	}
	accessWriter = writerFor(conf.Access, "access.log")
}

// AccessWriter returns the writer access log entries should be written to
func AccessWriter() io.Writer {
	return accessWriter
}

func writerFor(conf LoggerConf, filename string) io.Writer {
	var writers []io.Writer
	if conf.StdErr || conf.Dir == "" {
		writers = append(writers, os.Stderr)
	}
	if conf.Dir != "" {
		f, err := os.OpenFile(
			filepath.Join(conf.Dir, filename), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644,
		)
		if err != nil {
			log.WithError(err).WithField("file", filename).Error("could not open log file, using stderr")
			writers = append(writers, os.Stderr)
		} else {
			writers = append(writers, f)
		}
	}
	if len(writers) == 1 {
		return writers[0]
	}
	return io.MultiWriter(writers...)
}

// initSmartLogger duplicates error level entries into a separate file so
// they can be inspected without digging through the full log.
func initSmartLogger(dir string) {
	f, err := os.OpenFile(
		filepath.Join(dir, "errors.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644,
	)
	if err != nil {
		log.WithError(err).Error("could not open smart log file")
		return
	}
	log.AddHook(
		&errorDuplicationHook{
			writer: f,
			formatter: &log.TextFormatter{
				FullTimestamp: true,
			},
		},
	)
}

type errorDuplicationHook struct {
	writer    io.Writer
	formatter log.Formatter
}

func (h *errorDuplicationHook) Levels() []log.Level {
	return []log.Level{log.PanicLevel, log.FatalLevel, log.ErrorLevel}
}

func (h *errorDuplicationHook) Fire(entry *log.Entry) error {
	formatted, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.writer.Write(formatted)
	return err
}
