package handlers

import (
	"net/http"

	"tow-dispatch-api/models"
	"tow-dispatch-api/statemachine"

	"github.com/gin-gonic/gin"
)

// Health is the liveness probe
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GetStateMachineInfo describes order statuses and who may change them
func GetStateMachineInfo(c *gin.Context) {
	statuses := make([]gin.H, 0, len(models.AllStatuses))
	for _, s := range models.AllStatuses {
		statuses = append(statuses, gin.H{
			"code":  s,
			"label": s.Label(),
			"next":  statemachine.ValidTransitionsFrom(s),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"initial":       statemachine.Initial,
		"statuses":      statuses,
		"state_machine": statemachine.GetAllTransitions(),
		"description":   "Tow order lifecycle. Only an administrator changes status.",
	})
}
