package handler

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/DeeipChheda/warmup-master-main/internal/domain"
	"github.com/DeeipChheda/warmup-master-main/internal/service"
	"github.com/DeeipChheda/warmup-master-main/internal/spamscore"
)

type ContentScorer interface {
	Score(ctx context.Context, content spamscore.Content) spamscore.Analysis
}

type WarmupRunner interface {
	AdvanceDomains(ctx context.Context) (*service.CycleReport, error)
	AdvanceMailboxes(ctx context.Context) (*service.CycleReport, error)
}

func RegisterContentRoutes(router fiber.Router, scorer ContentScorer) error {
	if scorer == nil {
		return fmt.Errorf("content scorer is required")
	}

	router.Post("/v1/content/score", func(c *fiber.Ctx) error {
		var req scoreRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}

		mode := domain.ModeColdOutreach
		if req.Mode != "" {
			parsed, err := domain.ParseModeFromString(req.Mode)
			if err != nil {
				return toHTTPError(err)
			}
			mode = parsed
		}

		analysis := scorer.Score(requestCtx(c), spamscore.Content{
			Subject: req.Subject,
			Body:    req.Body,
			Mode:    mode,
		})
		return c.Status(fiber.StatusOK).JSON(scoreResponse{
			SpamScore:          analysis.Score,
			RiskLevel:          analysis.RiskLevel.String(),
			Recommendations:    nonNil(analysis.Recommendations),
			PredictedInboxRate: analysis.PredictedInboxRate,
			RiskFactors:        nonNil(analysis.RiskFactors),
			PositiveFactors:    nonNil(analysis.PositiveFactors),
			Source:             string(analysis.Source),
		})
	})
	return nil
}

// RegisterWarmupRoutes exposes the progression cycle for external schedulers.
// Repeated calls within one period are no-ops.
func RegisterWarmupRoutes(router fiber.Router, runner WarmupRunner) error {
	if runner == nil {
		return fmt.Errorf("warmup runner is required")
	}

	router.Post("/v1/warmup/advance", func(c *fiber.Ctx) error {
		ctx := requestCtx(c)
		reports := make([]cycleReportResponse, 0, 2)

		kind := c.Query("kind")
		if kind == "" || kind == domain.KindDomain.String() {
			report, err := runner.AdvanceDomains(ctx)
			if err != nil {
				return toHTTPError(err)
			}
			reports = append(reports, toCycleReportResponse(report))
		}
		if kind == "" || kind == domain.KindMailbox.String() {
			report, err := runner.AdvanceMailboxes(ctx)
			if err != nil {
				return toHTTPError(err)
			}
			reports = append(reports, toCycleReportResponse(report))
		}
		if len(reports) == 0 {
			return toHTTPError(fmt.Errorf("%w: invalid identity kind %q", domain.ErrValidation, kind))
		}

		return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": reports})
	})
	return nil
}

type scoreRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Mode    string `json:"mode"`
}

type scoreResponse struct {
	SpamScore          int      `json:"spamScore"`
	RiskLevel          string   `json:"riskLevel"`
	Recommendations    []string `json:"recommendations"`
	PredictedInboxRate int      `json:"predictedInboxRate"`
	RiskFactors        []string `json:"riskFactors"`
	PositiveFactors    []string `json:"positiveFactors"`
	Source             string   `json:"source"`
}

type cycleFailureResponse struct {
	IdentityID string `json:"identityId"`
	Error      string `json:"error"`
}

type cycleReportResponse struct {
	Period   string                 `json:"period"`
	Kind     string                 `json:"kind"`
	Advanced int                    `json:"advanced"`
	Reset    int                    `json:"reset"`
	Skipped  int                    `json:"skipped"`
	Failures []cycleFailureResponse `json:"failures"`
}

func toCycleReportResponse(r *service.CycleReport) cycleReportResponse {
	failures := make([]cycleFailureResponse, 0, len(r.Failures))
	for _, f := range r.Failures {
		failures = append(failures, cycleFailureResponse{IdentityID: f.IdentityID, Error: f.Err.Error()})
	}
	return cycleReportResponse{
		Period:   r.Period,
		Kind:     r.Kind.String(),
		Advanced: len(r.Advanced),
		Reset:    len(r.Reset),
		Skipped:  len(r.Skipped),
		Failures: failures,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
