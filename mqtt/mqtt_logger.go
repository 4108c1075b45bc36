package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// mqttLogger routes the paho client's internal logging into slog.
type mqttLogger struct {
	logger *slog.Logger
	level  slog.Level
}

func newMqttLogger(logger *slog.Logger, level slog.Level) *mqttLogger {
	return &mqttLogger{logger: logger, level: level}
}

func (l *mqttLogger) Println(v ...any) {
	l.print(fmt.Sprint(v...))
}

func (l *mqttLogger) Printf(format string, v ...any) {
	l.print(fmt.Sprintf(format, v...))
}

func (l *mqttLogger) print(msg string) {
	l.logger.Log(context.Background(), l.level, strings.TrimSpace(msg))
}
