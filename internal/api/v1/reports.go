package v1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lotbajar/social/internal/auth"
	"github.com/lotbajar/social/internal/models"
	"github.com/lotbajar/social/pkg/utils"
)

// CreateReport files a report against a post or comment for moderators to
// review.
func (api *API) CreateReport(c *fiber.Ctx) error {
	type ReportInput struct {
		SubjectType string `json:"subject_type" validate:"required,oneof=post comment"`
		SubjectID   string `json:"subject_id" validate:"required,uuid"`
		Reason      string `json:"reason" validate:"required,oneof=spam inappropriate harassment other"`
		Notes       string `json:"notes" validate:"omitempty,max=500"`
	}
	var in ReportInput
	if err := utils.StrictBodyParser(c, &in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request format"})
	}
	if err := api.Validator.Validate(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Validation failed", "details": err})
	}

	subjectID, err := uuid.Parse(in.SubjectID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid subject id"})
	}

	viewer := auth.CurrentUser(c)
	report := &models.Report{
		ReporterID:  viewer.ID,
		SubjectType: in.SubjectType,
		SubjectID:   subjectID,
		Reason:      in.Reason,
		Notes:       in.Notes,
	}
	if err := models.CreateReport(c.Context(), api.DB, report); err != nil {
		return api.fail(c, err)
	}

	api.Logger.Info(c.Context()).WithFields("reporter_id", viewer.ID.String(), "subject_type", in.SubjectType, "subject_id", in.SubjectID).Logs("Report filed")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Report submitted",
		"report":  report,
	})
}

// ListReports pages through reports for the moderation queue, oldest
// first. Filter with ?status=open|resolved|dismissed.
func (api *API) ListReports(c *fiber.Ctx) error {
	page, limit := pagination(c)
	status := c.Query("status", models.ReportStatusOpen)

	reports, err := models.GetReports(c.Context(), api.DB, status, page, limit)
	if err != nil {
		return api.fail(c, err)
	}

	open, err := models.CountReports(c.Context(), api.DB, models.ReportStatusOpen)
	if err != nil {
		return api.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"reports":    reports,
		"open_count": open,
		"page":       page,
		"limit":      limit,
	})
}

// ResolveReport closes a report. With remove_subject the reported post is
// unpublished or the reported comment deleted; with dismiss the report is
// closed without action.
func (api *API) ResolveReport(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return api.fail(c, err)
	}

	type ResolveInput struct {
		Dismiss       bool `json:"dismiss"`
		RemoveSubject bool `json:"remove_subject"`
	}
	var in ResolveInput
	if err := utils.StrictBodyParser(c, &in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request format"})
	}

	viewer := auth.CurrentUser(c)
	report, err := models.ResolveReport(c.Context(), api.Redis, api.DB, id, viewer.ID, in.Dismiss, in.RemoveSubject)
	if err != nil {
		return api.fail(c, err)
	}

	api.Logger.Info(c.Context()).WithFields("moderator_id", viewer.ID.String(), "report_id", id.String(), "status", report.Status).Logs("Report handled")

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Report handled",
		"report":  report,
	})
}
