package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"investor-research/internal/common/logger"
	"investor-research/internal/models"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakePublisher) Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, input)
	return &sns.PublishOutput{}, f.err
}

func TestNotifyTerminal_Succeeded(t *testing.T) {
	pub := &fakePublisher{}
	n := New(pub, "arn:aws:sns:eu-west-1:123:runs", logger.NewTestLogger(t))

	run := &models.Run{
		ID:     "run-1",
		Status: models.RunSucceeded,
		Result: &models.RunResult{
			Investors: []models.CanonicalRecord{{Name: "Acme Ventures"}},
		},
	}

	require.NoError(t, n.NotifyTerminal(context.Background(), run))
	require.Len(t, pub.inputs, 1)
	assert.Equal(t, "arn:aws:sns:eu-west-1:123:runs", *pub.inputs[0].TopicArn)

	var msg terminalMessage
	require.NoError(t, json.Unmarshal([]byte(*pub.inputs[0].Message), &msg))
	assert.Equal(t, "run-1", msg.RunID)
	assert.Equal(t, models.RunSucceeded, msg.Status)
	assert.Equal(t, 1, msg.InvestorCount)
	assert.Nil(t, msg.Error)
}

func TestNotifyTerminal_FailedRunCarriesError(t *testing.T) {
	pub := &fakePublisher{}
	n := New(pub, "arn:topic", logger.NewTestLogger(t))

	run := &models.Run{
		ID:     "run-2",
		Status: models.RunFailed,
		Error:  &models.ErrorDetail{Kind: models.ErrKindRetrieval, Message: "all sources failed"},
	}

	require.NoError(t, n.NotifyTerminal(context.Background(), run))

	var msg terminalMessage
	require.NoError(t, json.Unmarshal([]byte(*pub.inputs[0].Message), &msg))
	require.NotNil(t, msg.Error)
	assert.Equal(t, models.ErrKindRetrieval, msg.Error.Kind)
}

func TestNotifyTerminal_PublishFailure(t *testing.T) {
	n := New(&fakePublisher{err: fmt.Errorf("topic gone")}, "arn:topic", logger.NewTestLogger(t))

	err := n.NotifyTerminal(context.Background(), &models.Run{ID: "run-3", Status: models.RunFailed})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notify")
}
