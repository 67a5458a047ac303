// Package obs holds the logging and metrics plumbing shared by the
// tavola-auth service.
package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
)

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

// Logger returns the process-wide line logger. Request, audit and
// lifecycle output all flow through it, one JSON object per line.
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.New(os.Stdout, "", 0)
	})
	return logger
}

// LogRequest marshals one request entry to a single JSON line. A marshal
// failure is reported in line form rather than dropped.
func LogRequest(entry map[string]any) {
	data, err := json.Marshal(entry)
	if err != nil {
		Logger().Printf(`{"level":"error","msg":"request log marshal failed","error":%q}`, err.Error())
		return
	}
	Logger().Println(string(data))
}
