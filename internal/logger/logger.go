package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"kiosk/internal/config"
)

// Logger provides leveled logging (info/warning/error) to rotating files and stdout/stderr.
type Logger struct {
	infoLog    *logrus.Logger
	warningLog *logrus.Logger
	errorLog   *logrus.Logger
	files      map[string]*lumberjack.Logger
	logDir     string
	mu         sync.Mutex
}

// NewLogger creates a Logger and ensures the log directory exists.
func NewLogger(config *config.Config) *Logger {
	if err := os.MkdirAll(config.LogDirectory, 0755); err != nil {
		logrus.Fatalf("Failed to create log directory: %v", err)
	}

	logger := &Logger{
		logDir: config.LogDirectory,
		files:  make(map[string]*lumberjack.Logger),
	}

	logger.setupLoggers()
	return logger
}

// NewDiscard returns a Logger that drops everything. Used by tests and tools.
func NewDiscard() *Logger {
	return &Logger{
		infoLog:    newLogrus(io.Discard, logrus.InfoLevel),
		warningLog: newLogrus(io.Discard, logrus.WarnLevel),
		errorLog:   newLogrus(io.Discard, logrus.ErrorLevel),
		files:      make(map[string]*lumberjack.Logger),
	}
}

// setupLoggers initializes writers and per-level loggers.
func (l *Logger) setupLoggers() {
	infoWriter := io.MultiWriter(os.Stdout, l.openLogFile("info.log"))
	warningWriter := io.MultiWriter(os.Stdout, l.openLogFile("warning.log"))
	errorWriter := io.MultiWriter(os.Stderr, l.openLogFile("error.log"))

	l.infoLog = newLogrus(infoWriter, logrus.InfoLevel)
	l.warningLog = newLogrus(warningWriter, logrus.WarnLevel)
	l.errorLog = newLogrus(errorWriter, logrus.ErrorLevel)
}

// openLogFile returns a size-rotated writer for a file in the log directory.
func (l *Logger) openLogFile(name string) *lumberjack.Logger {
	file := &lumberjack.Logger{
		Filename:   filepath.Join(l.logDir, name),
		LocalTime:  true,
		Compress:   true,
		MaxSize:    10,
		MaxAge:     14,
		MaxBackups: 3,
	}
	l.files[name] = file
	return file
}

func newLogrus(out io.Writer, level logrus.Level) *logrus.Logger {
	lg := logrus.New()
	lg.SetLevel(level)
	lg.SetOutput(out)
	lg.SetFormatter(&formatter.Formatter{
		NoColors:        true,
		TimestampFormat: "2006-01-02 15:04:05",
		HideKeys:        false,
	})
	return lg
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoLog.Infof(format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warningLog.Warnf(format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorLog.Errorf(format, v...)
}

// CleanLogs truncates the specified log file.
func (l *Logger) CleanLogs(fileName string) {
	l.mu.Lock()
	file, ok := l.files[fileName]
	l.mu.Unlock()
	if !ok {
		l.Error("Unknown log file: %s", fileName)
		return
	}

	if err := file.Rotate(); err != nil {
		l.Error("Error rotating file %s: %v", fileName, err)
		return
	}

	l.Info("File %s has been cleared.", fileName)
}

// Close flushes and closes the underlying log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	for _, file := range l.files {
		if err := file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
