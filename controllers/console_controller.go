package controllers

import (
	"github.com/kendall-kelly/field-service-admin/services"
)

// ConsoleController serves the admin console over HTTP
type ConsoleController struct {
	console  *services.Console
	exporter *services.TicketExporter
}

// NewConsoleController creates a controller. exporter may be nil when
// report exports are not configured.
func NewConsoleController(console *services.Console, exporter *services.TicketExporter) *ConsoleController {
	return &ConsoleController{console: console, exporter: exporter}
}
