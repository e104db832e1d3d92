package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// AWSSESEmailService sends transactional mail through Amazon SES.
type AWSSESEmailService struct {
	client       *ses.Client
	fromAddress  string
	resetURLBase string
	logger       *slog.Logger
}

// NewAWSSESEmailService constructs the SES client from the default
// credential chain for the given region.
func NewAWSSESEmailService(ctx context.Context, region, fromAddress, resetURLBase string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		client:       ses.NewFromConfig(cfg),
		fromAddress:  fromAddress,
		resetURLBase: resetURLBase,
		logger:       logger,
	}, nil
}

// SendPasswordResetEmail delivers a reset link containing the plain token.
// Only the hash is stored server-side, so this email is the sole place the
// token ever appears.
func (s *AWSSESEmailService) SendPasswordResetEmail(ctx context.Context, email, token string, expiresAt time.Time) error {
	resetURL := fmt.Sprintf("%s?token=%s", s.resetURLBase, token)
	expiry := expiresAt.UTC().Format("15:04 MST, Jan 2 2006")

	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>Reset your password</h2>
			<p>We received a request to reset the password for your account.</p>
			<p><a href="%s">Choose a new password</a></p>
			<p>This link expires at %s. If you did not request a reset, you can ignore this email; your password is unchanged.</p>
		</body>
		</html>`, resetURL, expiry)

	textBody := fmt.Sprintf(
		"We received a request to reset the password for your account.\n\n"+
			"Choose a new password: %s\n\n"+
			"This link expires at %s. If you did not request a reset, you can ignore this email; your password is unchanged.\n",
		resetURL, expiry)

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String("Reset your Verba password"),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data:    aws.String(htmlBody),
					Charset: aws.String("UTF-8"),
				},
				Text: &types.Content{
					Data:    aws.String(textBody),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}

	s.logger.Info("password reset email sent")
	return nil
}
