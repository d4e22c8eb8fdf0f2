package rest

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/gurkanbulca/taskhub/internal/access"
	"github.com/gurkanbulca/taskhub/internal/middleware"
)

const welcomeMessage = "Welcome to Backend the backbone"

// NewApp builds the fiber application with the middleware chain and every
// route registered. requestTimeout bounds the context handed to services;
// zero disables it.
func NewApp(h *Handler, auth *middleware.Auth, log *zap.SugaredLogger, requestTimeout time.Duration) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "taskhub",
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler(log.Named("http")),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ClientInfoExtractor())
	app.Use(middleware.RequestLogger(log.Named("http")))
	if requestTimeout > 0 {
		app.Use(withTimeout(requestTimeout))
	}

	h.Routes(app, auth)
	return app
}

// Routes mounts the API routes on app.
func (h *Handler) Routes(app *fiber.App, auth *middleware.Auth) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(welcomeMessage)
	})
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	api.Post("/auth/register", h.RegisterUser)
	api.Post("/auth/registerAdmin", h.RegisterAdmin)
	api.Post("/auth/login", h.Login)

	authed := api.Group("", auth.Authenticate())
	authed.Post("/auth/logout", h.Logout)

	authed.Get("/users/profile", auth.Require(access.OpViewProfile), h.Profile)
	authed.Get("/users/getAllUsers", auth.Require(access.OpListUsers), h.ListUsers)
	authed.Get("/users/getSingleUser", auth.Require(access.OpGetSingleUser), h.GetSingleUser)
	authed.Post("/roles/assign/:id", auth.Require(access.OpAssignRole), h.AssignRole)

	authed.Post("/createTeam", auth.Require(access.OpCreateTeam), h.CreateTeam)
	authed.Post("/getAllTeams", auth.Require(access.OpListTeams), h.ListTeams)
	authed.Post("/getSingleTeam/:id", auth.Require(access.OpGetTeam), h.GetTeam)

	authed.Post("/task/createTask", auth.Require(access.OpCreateTask), h.CreateTask)
	authed.Get("/task/getTasks", auth.Require(access.OpListOwnTasks), h.GetTasks)
	authed.Put("/task/updateTask", auth.Require(access.OpUpdateOwnTask), h.UpdateTask)
	authed.Delete("/task/deleteTask", auth.Require(access.OpDeleteOwnTask), h.DeleteTask)
	authed.Get("/task/getAllTask", auth.Require(access.OpListAllTasks), h.GetAllTasks)
	authed.Put("/task/assignTaskByAdmin", auth.Require(access.OpAssignTask), h.AssignTask)
	authed.Put("/task/updateTaskForUser", auth.Require(access.OpUpdateTaskForUser), h.UpdateTaskForUser)
	authed.Get("/task/analytics", auth.Require(access.OpTaskAnalytics), h.TaskAnalytics)

	authed.Get("/admin/dashboard", auth.Require(access.OpAdminDashboard), dashboard("Admin dashboard"))
	authed.Get("/manager/dashboard", auth.Require(access.OpManagerDashboard), dashboard("Manager dashboard"))
	authed.Get("/user/dashboard", auth.Require(access.OpUserDashboard), dashboard("User dashboard"))
}

func dashboard(title string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": title})
	}
}

func withTimeout(d time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), d)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}
