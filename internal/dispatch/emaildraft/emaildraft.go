// Package emaildraft composes the outreach email for a completed run and
// optionally sends it through SES. A missing calendar or disabled sender
// degrades to draft-only, never to failure of the run.
package emaildraft

import (
	"context"
	"fmt"
	"strings"
	"time"

	"investor-research/internal/common/errors"
	"investor-research/internal/common/logger"
	"investor-research/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type sesSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type availabilitySource interface {
	GetAvailability(ctx context.Context) ([]models.AvailabilitySlot, error)
}

type Drafter struct {
	fromEmail string
	toEmail   string
	calendar  availabilitySource
	sender    sesSender
	log       logger.Logger
}

// New builds the drafter. calendar and sender may be nil; either absence
// only reduces the draft, it never fails dispatch.
func New(fromEmail, toEmail string, calendar availabilitySource, sender sesSender, log logger.Logger) *Drafter {
	return &Drafter{
		fromEmail: fromEmail,
		toEmail:   toEmail,
		calendar:  calendar,
		sender:    sender,
		log:       log,
	}
}

func (d *Drafter) Name() string {
	return "email_draft"
}

func (d *Drafter) Dispatch(ctx context.Context, runID string, result *models.RunResult) error {
	var slots []models.AvailabilitySlot
	if d.calendar != nil {
		fetched, err := d.calendar.GetAvailability(ctx)
		if err != nil {
			d.log.Warn("Availability lookup failed, drafting without slots", map[string]interface{}{
				"run_id": runID,
				"error":  err.Error(),
			})
		} else {
			slots = fetched
		}
	}

	draft := compose(result, slots)
	result.EmailDraft = &draft
	result.Availability = slots

	if d.sender == nil {
		return nil
	}

	input := &ses.SendEmailInput{
		Source: aws.String(d.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{d.toEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(draft.Subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(draft.BodyText)},
			},
		},
	}

	if _, err := d.sender.SendEmail(ctx, input); err != nil {
		return errors.NewDispatchFailedError(errors.ErrCodeDraftFailed, d.Name(), err)
	}

	return nil
}

func compose(result *models.RunResult, slots []models.AvailabilitySlot) models.EmailDraft {
	project := ""
	if result.Query != nil {
		project = result.Query.TargetProject
	}

	subject := "Investor shortlist"
	if project != "" {
		subject = fmt.Sprintf("Investor shortlist for %s", project)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hi,\n\nHere are %d investors matching the brief", len(result.Investors))
	if project != "" {
		fmt.Fprintf(&b, " for %s", project)
	}
	b.WriteString(":\n\n")

	for i, inv := range result.Investors {
		fmt.Fprintf(&b, "%d. %s", i+1, inv.Name)
		if inv.Website != "" {
			fmt.Fprintf(&b, " (%s)", inv.Website)
		}
		if inv.Warm {
			b.WriteString(" [warm intro available]")
		}
		b.WriteString("\n")
	}

	if len(slots) > 0 {
		b.WriteString("\nSuggested times for a call:\n")
		for _, slot := range slots {
			if start, err := time.Parse(time.RFC3339, slot.StartISO); err == nil {
				fmt.Fprintf(&b, "- %s\n", start.Format("Mon, 2 Jan 15:04 MST"))
			}
		}
	}

	b.WriteString("\nBest regards\n")

	return models.EmailDraft{
		Subject:  subject,
		BodyText: b.String(),
	}
}
