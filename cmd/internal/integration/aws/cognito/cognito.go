package cognitoclient

import (
	"context"
	"errors"
	"fmt"

	"slotbook/cmd/internal/middleware"
	"slotbook/cmd/internal/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/smithy-go"
)

// CognitoInterface is the subset of the Cognito API the verifier calls.
type CognitoInterface interface {
	GetUser(ctx context.Context, params *cognitoidentityprovider.GetUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.GetUserOutput, error)
}

// Client resolves Cognito access tokens to the user's sub.
type Client struct {
	api CognitoInterface
}

func InitCognitoClient(ctx context.Context, region string) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return New(cognitoidentityprovider.NewFromConfig(cfg)), nil
}

func New(api CognitoInterface) *Client {
	return &Client{api: api}
}

func (c *Client) Verify(ctx context.Context, token string) (*utils.TokenData, error) {
	out, err := c.api.GetUser(ctx, &cognitoidentityprovider.GetUserInput{
		AccessToken: aws.String(token),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "NotAuthorizedException", "UserNotFoundException", "UserNotConfirmedException":
				return nil, fmt.Errorf("%w: %s", middleware.ErrInvalidToken, apiErr.ErrorCode())
			}
		}
		return nil, err
	}

	data := &utils.TokenData{}
	for _, attr := range out.UserAttributes {
		switch aws.ToString(attr.Name) {
		case "sub":
			data.Sub = aws.ToString(attr.Value)
		case "email":
			data.Email = aws.ToString(attr.Value)
		}
	}
	if data.Sub == "" {
		data.Sub = aws.ToString(out.Username)
	}
	if data.Sub == "" {
		return nil, fmt.Errorf("%w: token has no subject", middleware.ErrInvalidToken)
	}
	return data, nil
}
