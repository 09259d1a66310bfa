package log

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/CMSgov/casemix-app/casemix/constants"
	"github.com/CMSgov/casemix-app/conf"
)

var (
	Pipeline logrus.FieldLogger
	Loader   logrus.FieldLogger
	Export   logrus.FieldLogger
)

func init() {
	SetupLoggers()
}

// SetupLoggers (re)builds the package loggers from the current configuration.
func SetupLoggers() {
	env := conf.GetEnv("ENVIRONMENT")
	Pipeline = Logger(logrus.New(), conf.GetEnv("CASEMIX_PIPELINE_LOG"), "pipeline", env)
	Loader = Logger(logrus.New(), conf.GetEnv("CASEMIX_LOADER_LOG"), "loader", env)
	Export = Logger(logrus.New(), conf.GetEnv("CASEMIX_EXPORT_LOG"), "export", env)
}

// Logger configures logger to emit JSON to outputFile (stderr when empty or unopenable)
// and tags every entry with the application and environment.
func Logger(logger *logrus.Logger, outputFile string,
	application, environment string) logrus.FieldLogger {

	logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000000Z07:00"})
	logger.SetReportCaller(false)

	if outputFile != "" {
		if file, err := os.OpenFile(filepath.Clean(outputFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640); err == nil {
			logger.SetOutput(file)
		} else {
			logger.Infof("Failed to open output file %s. Will use stderr. %s",
				outputFile, err.Error())
		}
	}

	return logger.WithFields(logrus.Fields{
		"application": application,
		"environment": environment,
		"source_app":  "casemix",
		"version":     constants.Version,
	})
}
