package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/urbansense/smart-city-platform/internal/domain"
	"github.com/urbansense/smart-city-platform/internal/repository"
	"github.com/urbansense/smart-city-platform/internal/service"
)

func Register(app *fiber.App, svcs *service.Services) {
	registerSensors(app, svcs)
	registerIncidents(app, svcs)
	registerWorkOrders(app, svcs)
	registerScenarios(app, svcs)
}

func registerSensors(app *fiber.App, svcs *service.Services) {
	g := app.Group("/sensors")

	g.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(svcs.Sensors.List())
	})
	g.Get("/:id", func(c *fiber.Ctx) error {
		sensor := svcs.Sensors.Get(c.Params("id"))
		if sensor == nil {
			return c.Status(404).JSON(fiber.Map{"error": "sensor not found"})
		}
		return c.JSON(sensor)
	})
	g.Get("/:id/readings", func(c *fiber.Ctx) error {
		from := parseTime(c.Query("from"))
		to := parseTime(c.Query("to"))
		readings, err := svcs.Sensors.Readings(c.Params("id"), from, to, c.QueryInt("limit"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(readings)
	})
	g.Put("/:id/config", func(c *fiber.Ctx) error {
		var cfg domain.SimConfig
		if err := c.BodyParser(&cfg); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		if err := svcs.Sensors.UpdateConfig(c.Params("id"), cfg); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(svcs.Sensors.Get(c.Params("id")))
	})
	g.Post("/:id/simulation/start", func(c *fiber.Ctx) error {
		if err := svcs.Sensors.StartSimulation(c.Params("id")); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})
	g.Post("/:id/simulation/stop", func(c *fiber.Ctx) error {
		svcs.Sensors.StopSimulation(c.Params("id"))
		return c.SendStatus(204)
	})
}

func registerIncidents(app *fiber.App, svcs *service.Services) {
	g := app.Group("/incidents")

	g.Get("/", func(c *fiber.Ctx) error {
		f := repository.ListFilter{
			Status:     domain.IncidentStatus(c.Query("status")),
			Severity:   domain.Severity(c.Query("severity")),
			Category:   domain.IncidentCategory(c.Query("category")),
			ZoneID:     c.Query("zone"),
			From:       parseTime(c.Query("from")),
			To:         parseTime(c.Query("to")),
			SortBy:     c.Query("sort"),
			Descending: c.Query("order", "desc") == "desc",
			Limit:      c.QueryInt("limit", 50),
			Offset:     c.QueryInt("offset"),
		}
		if v := c.QueryInt("minPriority", -1); v >= 0 {
			f.MinPriority = &v
		}
		if v := c.QueryInt("maxPriority", -1); v >= 0 {
			f.MaxPriority = &v
		}
		incidents, err := svcs.Incidents.List(f)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(incidents)
	})
	g.Get("/stats/severity", func(c *fiber.Ctx) error {
		counts, err := svcs.Incidents.CountsBySeverity()
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(counts)
	})
	g.Get("/:id", func(c *fiber.Ctx) error {
		inc, err := svcs.Incidents.Get(c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if inc == nil {
			return c.Status(404).JSON(fiber.Map{"error": "incident not found"})
		}
		return c.JSON(inc)
	})
	g.Post("/", func(c *fiber.Ctx) error {
		var req service.CreateRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		inc, err := svcs.Incidents.Create(req)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(inc)
	})
	g.Patch("/:id", func(c *fiber.Ctx) error {
		var body struct {
			Description string `json:"description"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		if err := svcs.Incidents.UpdateDescription(c.Params("id"), body.Description); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})
	g.Post("/:id/resolve", func(c *fiber.Ctx) error {
		if err := svcs.Incidents.Resolve(c.Params("id")); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})
	g.Post("/:id/dismiss", func(c *fiber.Ctx) error {
		if err := svcs.Incidents.Dismiss(c.Params("id")); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})
	g.Delete("/:id", func(c *fiber.Ctx) error {
		if err := svcs.Incidents.Delete(c.Params("id")); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})
}

func registerWorkOrders(app *fiber.App, svcs *service.Services) {
	g := app.Group("/work-orders")

	g.Get("/", func(c *fiber.Ctx) error {
		orders, err := svcs.WorkOrders.List(repository.WorkOrderFilter{
			Status:     domain.WorkOrderStatus(c.Query("status")),
			IncidentID: c.Query("incident"),
			ZoneID:     c.Query("zone"),
			Limit:      c.QueryInt("limit", 50),
			Offset:     c.QueryInt("offset"),
		})
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(orders)
	})
	g.Get("/stats/status", func(c *fiber.Ctx) error {
		counts, err := svcs.WorkOrders.CountsByStatus()
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(counts)
	})
	g.Get("/:id", func(c *fiber.Ctx) error {
		wo, err := svcs.WorkOrders.Get(c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if wo == nil {
			return c.Status(404).JSON(fiber.Map{"error": "work order not found"})
		}
		return c.JSON(wo)
	})
	g.Post("/", func(c *fiber.Ctx) error {
		var body struct {
			IncidentID  string `json:"incidentId"`
			Title       string `json:"title"`
			Description string `json:"description"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		wo, err := svcs.WorkOrders.CreateForIncident(body.IncidentID, body.Title, body.Description)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(wo)
	})
	g.Patch("/:id/status", func(c *fiber.Ctx) error {
		var body struct {
			Status domain.WorkOrderStatus `json:"status"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		if err := svcs.WorkOrders.UpdateStatus(c.Params("id"), body.Status); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})
	g.Post("/:id/assign", func(c *fiber.Ctx) error {
		var body struct {
			UnitID string `json:"unitId"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		if err := svcs.WorkOrders.Assign(c.Params("id"), body.UnitID); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})
	g.Post("/:id/simulation/start", func(c *fiber.Ctx) error {
		if err := svcs.WorkOrders.StartSimulation(c.Params("id")); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})
	g.Post("/:id/simulation/cancel", func(c *fiber.Ctx) error {
		if err := svcs.WorkOrders.CancelSimulation(c.Params("id")); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	app.Get("/field-units", func(c *fiber.Ctx) error {
		return c.JSON(svcs.WorkOrders.Units())
	})
}

func registerScenarios(app *fiber.App, svcs *service.Services) {
	g := app.Group("/scenarios")

	g.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(svcs.Scenarios.List())
	})
	g.Get("/active/status", func(c *fiber.Ctx) error {
		active := svcs.Scenarios.Active()
		if active == nil {
			return c.JSON(fiber.Map{"active": false})
		}
		return c.JSON(fiber.Map{"active": true, "scenario": active})
	})
	g.Get("/:id", func(c *fiber.Ctx) error {
		sc := svcs.Scenarios.Get(c.Params("id"))
		if sc == nil {
			return c.Status(404).JSON(fiber.Map{"error": "scenario not found"})
		}
		return c.JSON(sc)
	})
	g.Post("/:id/trigger", func(c *fiber.Ctx) error {
		active, err := svcs.Scenarios.Trigger(c.Params("id"))
		if err != nil {
			return c.Status(409).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(active)
	})
	g.Post("/stop", func(c *fiber.Ctx) error {
		if err := svcs.Scenarios.Stop(); err != nil {
			return c.Status(409).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
