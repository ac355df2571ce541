package main

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "console",
		Short: "Field Service Admin Console",
		Long:  `The Field Service Admin Console serves the admin front end: engineer approvals, ticket management and UPI payments against the field service API.`,
	}

	rootCmd.AddCommand(
		newServeCommand(),
		newLoginCommand(),
		newLogoutCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Field Service Admin Console is running",
	})
}
