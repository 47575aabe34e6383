package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/meal-marketplace/internal/api/http/handlers"
	"github.com/spec-kit/meal-marketplace/internal/auth"
	"github.com/spec-kit/meal-marketplace/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Users     *handlers.UsersHandler
	Houses    *handlers.HousesHandler
	MealPlans *handlers.MealPlansHandler
	Orders    *handlers.OrdersHandler
	Guard     *auth.Guard
}

// RegisterRoutes wires HTTP routes. Reads on houses and plans are
// public; everything that mutates state requires a verified identity.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/password/reset/request", cfg.Users.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Users.ConfirmPasswordReset)
	authGroup.Post("/password/change", cfg.Guard.Authenticate, auth.RequireAuthenticated(), cfg.Users.ChangePassword)

	houses := app.Group("/houses")
	houses.Get("", cfg.Houses.ListHouses)
	houses.Get("/:id", cfg.Houses.GetHouse)
	houses.Get("/:id/plans", cfg.MealPlans.ListPlans)
	houses.Post("", cfg.Guard.Authenticate, auth.RequireRole(domain.RoleOwner, domain.RoleAdmin), cfg.Houses.CreateHouse)
	houses.Patch("/:id", cfg.Guard.Authenticate, auth.RequireRole(domain.RoleOwner, domain.RoleAdmin), cfg.Houses.UpdateHouse)
	houses.Delete("/:id", cfg.Guard.Authenticate, auth.RequireRole(domain.RoleOwner, domain.RoleAdmin), cfg.Houses.DeleteHouse)
	houses.Post("/:id/plans", cfg.Guard.Authenticate, auth.RequireRole(domain.RoleOwner, domain.RoleAdmin), cfg.MealPlans.CreatePlan)

	plans := app.Group("/plans")
	plans.Get("/:id", cfg.MealPlans.GetPlan)
	plans.Patch("/:id", cfg.Guard.Authenticate, auth.RequireRole(domain.RoleOwner, domain.RoleAdmin), cfg.MealPlans.UpdatePlan)
	plans.Delete("/:id", cfg.Guard.Authenticate, auth.RequireRole(domain.RoleOwner, domain.RoleAdmin), cfg.MealPlans.DeletePlan)

	orders := app.Group("/orders", cfg.Guard.Authenticate, auth.RequireAuthenticated())
	orders.Post("", cfg.Orders.PlaceOrder)
	orders.Get("", cfg.Orders.ListOrders)
	orders.Get("/:id", cfg.Orders.GetOrder)
	orders.Post("/:id/status", cfg.Orders.AdvanceOrder)
}
