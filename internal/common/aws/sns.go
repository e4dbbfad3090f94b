// internal/common/aws/sns.go
package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSAPI is the slice of the SNS client the workers use.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// NewSNSClient builds an SNS client from the default credential chain.
func NewSNSClient(ctx context.Context, region string) (*sns.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return sns.NewFromConfig(cfg), nil
}

// Alert is a topic message with string attributes for subscription filters.
type Alert struct {
	TopicARN   string
	Subject    string
	Message    string
	Attributes map[string]string
}

// PublishAlert sends alert to its topic and returns the SNS message id.
func PublishAlert(ctx context.Context, api SNSAPI, alert Alert) (string, error) {
	input := &sns.PublishInput{
		TopicArn: aws.String(alert.TopicARN),
		Message:  aws.String(alert.Message),
	}
	if alert.Subject != "" {
		input.Subject = aws.String(alert.Subject)
	}
	if len(alert.Attributes) > 0 {
		input.MessageAttributes = make(map[string]types.MessageAttributeValue, len(alert.Attributes))
		for k, v := range alert.Attributes {
			input.MessageAttributes[k] = types.MessageAttributeValue{
				DataType:    aws.String("String"),
				StringValue: aws.String(v),
			}
		}
	}

	out, err := api.Publish(ctx, input)
	if err != nil {
		return "", err
	}
	return aws.ToString(out.MessageId), nil
}
