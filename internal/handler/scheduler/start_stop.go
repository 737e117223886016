package scheduler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Start starts the mailbox scan scheduler
func Start(s Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.Start(); err != nil {
			logrus.WithError(err).Warn("Failed to start scheduler")
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "scheduler_error",
				Message: "Failed to start scheduler: " + err.Error(),
				Code:    http.StatusConflict,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Scheduler started successfully",
			"status":  "running",
		})
	}
}

// Stop stops the mailbox scan scheduler
func Stop(s Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.Stop(); err != nil {
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "scheduler_error",
				Message: "Failed to stop scheduler",
				Code:    http.StatusInternalServerError,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Scheduler stopped successfully",
			"status":  "stopped",
		})
	}
}
