package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gurkanbulca/taskhub/internal/middleware"
	"github.com/gurkanbulca/taskhub/internal/models"
	"github.com/gurkanbulca/taskhub/internal/service"
)

type createTeamRequest struct {
	Name      string   `json:"name"`
	ManagerID string   `json:"managerId"`
	Members   []string `json:"members"`
}

// CreateTeam creates a team with a manager and members.
func (h *Handler) CreateTeam(c *fiber.Ctx) error {
	var body createTeamRequest
	if err := c.BodyParser(&body); err != nil {
		return models.BadRequest(msgInvalidBody)
	}

	ctx := c.UserContext()
	team, err := h.svc.Teams.CreateTeam(ctx, middleware.ActorFromContext(ctx), service.CreateTeamInput{
		Name:      body.Name,
		ManagerID: body.ManagerID,
		Members:   body.Members,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Team created successfully",
		"team":    team,
	})
}

// ListTeams returns every team.
func (h *Handler) ListTeams(c *fiber.Ctx) error {
	ctx := c.UserContext()
	teams, err := h.svc.Teams.ListTeams(ctx, middleware.ActorFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "All teams successfully fetched",
		"teams":   teams,
	})
}

// GetTeam returns the team named in the path.
func (h *Handler) GetTeam(c *fiber.Ctx) error {
	ctx := c.UserContext()
	team, err := h.svc.Teams.GetTeam(ctx, middleware.ActorFromContext(ctx), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Team fetched successfully",
		"team":    team,
	})
}
