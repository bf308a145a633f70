package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/draftkit/component"
	"github.com/kbukum/draftkit/version"
)

// startTime records when the process started for uptime calculation.
var startTime = time.Now()

// Describer lists the infrastructure behind the service, usually
// component.Registry.Describe.
type Describer func() []component.Description

// Info returns a handler that reports version, uptime and the described
// components.
func Info(serviceName string, describe Describer) gin.HandlerFunc {
	return func(c *gin.Context) {
		v := version.Get()
		var components []component.Description
		if describe != nil {
			components = describe()
		}
		c.JSON(http.StatusOK, gin.H{
			"service":    serviceName,
			"version":    v.Version,
			"git_commit": v.GitCommit,
			"build_time": v.BuildTime,
			"go_version": v.GoVersion,
			"uptime":     time.Since(startTime).String(),
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": components,
		})
	}
}
