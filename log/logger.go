package log

import (
	"os"
	"path/filepath"

	"github.com/retailops/salesuite-app/conf"
	"github.com/sirupsen/logrus"
)

var (
	Extract logrus.FieldLogger
	Process logrus.FieldLogger
	Gen     logrus.FieldLogger
	Report  logrus.FieldLogger
	Search  logrus.FieldLogger
)

func init() {
	Extract = Logger(logrus.New(), conf.GetEnv("SALESUITE_EXTRACT_LOG"),
		"extract", conf.GetEnv("ENVIRONMENT"))
	Process = Logger(logrus.New(), conf.GetEnv("SALESUITE_PROCESS_LOG"),
		"process", conf.GetEnv("ENVIRONMENT"))
	Gen = Logger(logrus.New(), conf.GetEnv("SALESUITE_GEN_LOG"),
		"gen", conf.GetEnv("ENVIRONMENT"))
	Report = Logger(logrus.New(), conf.GetEnv("SALESUITE_REPORT_LOG"),
		"report", conf.GetEnv("ENVIRONMENT"))
	Search = Logger(logrus.New(), conf.GetEnv("SALESUITE_SEARCH_LOG"),
		"search", conf.GetEnv("ENVIRONMENT"))
}

func Logger(logger *logrus.Logger, outputFile string,
	application, environment string) logrus.FieldLogger {

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
		"environment": environment})
}
