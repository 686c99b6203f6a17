package statedb

import (
	"fmt"
	"strings"

	"github.com/getmentor/getmentor-escrow/pkg/logger"
	"go.uber.org/zap"
)

// badgerLogger routes badger's internal logging into the application logger
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logger.Error("badger", zap.String("msg", trim(format, args...)))
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logger.Warn("badger", zap.String("msg", trim(format, args...)))
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logger.Debug("badger", zap.String("msg", trim(format, args...)))
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logger.Debug("badger", zap.String("msg", trim(format, args...)))
}

func trim(format string, args ...interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
