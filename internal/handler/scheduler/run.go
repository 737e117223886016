package scheduler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/samthedataman/resumably/internal/mailbox"
)

// RunOnce scans the mailbox once and queues what it finds
func RunOnce(s Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := s.RunOnce(c.Request.Context())
		if err != nil {
			logrus.WithError(err).Error("Manual mailbox scan failed")
			status := http.StatusInternalServerError
			if errors.Is(err, mailbox.ErrNotConnected) {
				status = http.StatusBadRequest
			}
			c.JSON(status, ErrorResponse{
				Error:   "scheduler_error",
				Message: "Failed to run mailbox scan",
				Code:    status,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Mailbox scan completed successfully",
			"result":  result,
		})
	}
}
