package speech

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"

	"medtranslate/pkg/models"
)

// TaskClient starts and inspects asynchronous synthesis tasks.
type TaskClient interface {
	StartTask(ctx context.Context, text, voice string) (*models.SynthesisTask, error)
	GetTask(ctx context.Context, taskID string) (*models.SynthesisTask, error)
}

// PollyAPI is the subset of the Amazon Polly client used here.
type PollyAPI interface {
	StartSpeechSynthesisTask(ctx context.Context, params *polly.StartSpeechSynthesisTaskInput, optFns ...func(*polly.Options)) (*polly.StartSpeechSynthesisTaskOutput, error)
	GetSpeechSynthesisTask(ctx context.Context, params *polly.GetSpeechSynthesisTaskInput, optFns ...func(*polly.Options)) (*polly.GetSpeechSynthesisTaskOutput, error)
}

// PollyClient implements TaskClient with Amazon Polly, writing mp3 output to
// a bucket.
type PollyClient struct {
	client PollyAPI
	bucket string
}

// NewPollyClient wraps a Polly client. Output lands in bucket.
func NewPollyClient(client PollyAPI, bucket string) *PollyClient {
	return &PollyClient{client: client, bucket: bucket}
}

func (p *PollyClient) StartTask(ctx context.Context, text, voice string) (*models.SynthesisTask, error) {
	out, err := p.client.StartSpeechSynthesisTask(ctx, &polly.StartSpeechSynthesisTaskInput{
		Text:               aws.String(text),
		VoiceId:            types.VoiceId(voice),
		OutputFormat:       types.OutputFormatMp3,
		OutputS3BucketName: aws.String(p.bucket),
	})
	if err != nil {
		return nil, err
	}
	if out.SynthesisTask == nil || aws.ToString(out.SynthesisTask.TaskId) == "" {
		return nil, fmt.Errorf("no task in response")
	}
	return toTask(out.SynthesisTask), nil
}

func (p *PollyClient) GetTask(ctx context.Context, taskID string) (*models.SynthesisTask, error) {
	out, err := p.client.GetSpeechSynthesisTask(ctx, &polly.GetSpeechSynthesisTaskInput{
		TaskId: aws.String(taskID),
	})
	if err != nil {
		return nil, err
	}
	if out.SynthesisTask == nil {
		return nil, fmt.Errorf("no task in response")
	}
	return toTask(out.SynthesisTask), nil
}

// toTask drops an output URI reported before completion.
func toTask(t *types.SynthesisTask) *models.SynthesisTask {
	task := &models.SynthesisTask{
		TaskID:       aws.ToString(t.TaskId),
		Status:       models.SynthesisStatus(t.TaskStatus),
		StatusReason: aws.ToString(t.TaskStatusReason),
	}
	if task.Status == models.SynthesisCompleted {
		task.OutputURI = aws.ToString(t.OutputUri)
	}
	return task
}
