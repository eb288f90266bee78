// Package job contains the scheduled background jobs run by the web server.
package job

import (
	"os"

	"songvault/config"
	"songvault/logger"
)

// ClearLogsJob rotates the application log file: the current log is
// appended to the previous-log file and truncated.
type ClearLogsJob struct{}

func NewClearLogsJob() *ClearLogsJob {
	return new(ClearLogsJob)
}

// Run is the cron Job interface method.
func (j *ClearLogsJob) Run() {
	logPath := config.GetLogPath()
	prevPath := logPath + ".prev"

	if err := os.Truncate(prevPath, 0); err != nil && !os.IsNotExist(err) {
		logger.Warning("clear logs job err:", err)
	}

	prevFile, err := os.OpenFile(prevPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		logger.Warning("clear logs job err:", err)
		return
	}
	defer prevFile.Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warning("clear logs job err:", err)
		}
		return
	}

	if _, err = prevFile.Write(data); err != nil {
		logger.Warning("clear logs job err:", err)
	}

	if err = os.Truncate(logPath, 0); err != nil {
		logger.Warning("clear logs job err:", err)
	}
}
