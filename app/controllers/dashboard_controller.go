package controllers

import "github.com/gofiber/fiber/v2"

type DashboardController struct {
	deps Dependencies
}

func NewDashboardController(deps Dependencies) *DashboardController {
	return &DashboardController{deps: deps}
}

// HandleDashboardStats returns the portal counters.
func (dc *DashboardController) HandleDashboardStats(c *fiber.Ctx) error {
	stats, err := dc.deps.Stats.Dashboard(c.UserContext())
	if err != nil {
		return internalError(c, "load statistics", err)
	}
	return c.JSON(stats)
}
