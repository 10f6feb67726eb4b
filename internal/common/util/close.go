package util

import (
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/shopease/shopease/internal/common/logging"
)

// CloseResource closes c, tagging log lines with the resource name. A failure is logged as a
// warning and otherwise ignored.
func CloseResource(logger *log.Entry, name string, c io.Closer) {
	logger = logger.WithField("resource", name)
	if err := c.Close(); err != nil {
		logging.WithStacktrace(logger, err).Warn("Failed to close cleanly")
		return
	}
	logger.Debug("Closed")
}
