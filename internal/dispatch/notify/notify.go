// Package notify publishes terminal run states to SNS so downstream
// consumers can react without polling.
package notify

import (
	"context"
	"encoding/json"

	"investor-research/internal/common/errors"
	"investor-research/internal/common/logger"
	"investor-research/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type snsPublisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

type Notifier struct {
	publisher snsPublisher
	topicARN  string
	log       logger.Logger
}

func New(publisher snsPublisher, topicARN string, log logger.Logger) *Notifier {
	return &Notifier{publisher: publisher, topicARN: topicARN, log: log}
}

type terminalMessage struct {
	RunID         string              `json:"runId"`
	Status        models.RunStatus    `json:"status"`
	InvestorCount int                 `json:"investorCount"`
	Error         *models.ErrorDetail `json:"error,omitempty"`
}

// NotifyTerminal publishes one message for a run that reached a terminal
// status. Best effort: callers log failures instead of failing the run.
func (n *Notifier) NotifyTerminal(ctx context.Context, run *models.Run) error {
	msg := terminalMessage{
		RunID:  run.ID,
		Status: run.Status,
		Error:  run.Error,
	}
	if run.Result != nil {
		msg.InvestorCount = len(run.Result.Investors)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return errors.NewDispatchFailedError(errors.ErrCodeNotificationFailed, "notify", err)
	}

	_, err = n.publisher.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Message:  aws.String(string(body)),
	})
	if err != nil {
		return errors.NewDispatchFailedError(errors.ErrCodeNotificationFailed, "notify", err)
	}

	n.log.Debug("Terminal state published", map[string]interface{}{
		"run_id": run.ID,
		"status": string(run.Status),
	})
	return nil
}
