package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetConfirmation handles GET /confirm
func (cc *ConsoleController) GetConfirmation(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    cc.console.Gate.Prompt(),
	})
}

// Confirm handles POST /confirm - runs the pending action
func (cc *ConsoleController) Confirm(c *gin.Context) {
	result, err := cc.console.Gate.Confirm(c.Request.Context())
	if err != nil {
		respondActionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// CancelConfirmation handles DELETE /confirm
func (cc *ConsoleController) CancelConfirmation(c *gin.Context) {
	cancelled := cc.console.Gate.Cancel()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"cancelled": cancelled,
		},
	})
}

// GetPayment handles GET /payment
func (cc *ConsoleController) GetPayment(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    cc.console.Watcher.Status(),
	})
}

// CancelPayment handles DELETE /payment - closes the QR view without an outcome
func (cc *ConsoleController) CancelPayment(c *gin.Context) {
	if err := cc.console.Watcher.Cancel(); err != nil {
		respondActionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    cc.console.Watcher.Status(),
	})
}

// GetNotices handles GET /notices - returns and clears pending notices
func (cc *ConsoleController) GetNotices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    cc.console.Notices.Drain(),
	})
}
