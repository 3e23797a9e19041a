package services

import (
	"code-review-client/config"

	"github.com/sirupsen/logrus"
)

func componentLog(logger *logrus.Logger, name string) *logrus.Entry {
	if logger == nil {
		logger = config.DiscardLogger()
	}
	return logger.WithField("component", name)
}
