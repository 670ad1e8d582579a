package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsFetcher returns the raw secret string for an id.
type SecretsFetcher func(ctx context.Context, secretID string) (string, error)

// fetchSecret is swapped in tests
var fetchSecret SecretsFetcher = fetchFromSecretsManager

func fetchFromSecretsManager(ctx context.Context, secretID string) (string, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := secretsmanager.NewFromConfig(awsCfg)
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get secret %s: %w", secretID, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", secretID)
	}
	return *out.SecretString, nil
}

// ApplySecretsOverlay reads a JSON secret (env-var names as keys) and
// overrides the matching sensitive fields of cfg.
func ApplySecretsOverlay(cfg *Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	raw, err := fetchSecret(ctx, cfg.AWSSecretID)
	if err != nil {
		return err
	}

	var values map[string]string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return fmt.Errorf("secret %s is not a JSON object: %w", cfg.AWSSecretID, err)
	}

	targets := map[string]*string{
		"SESSION_SECRET":       &cfg.SessionSecret,
		"RESEND_API_KEY":       &cfg.ResendAPIKey,
		"TURSO_AUTH_TOKEN":     &cfg.TursoAuthToken,
		"R2_ACCESS_KEY_ID":     &cfg.R2AccessKeyID,
		"R2_SECRET_ACCESS_KEY": &cfg.R2SecretAccessKey,
		"MINIO_ACCESS_KEY":     &cfg.MinioAccessKey,
		"MINIO_SECRET_KEY":     &cfg.MinioSecretKey,
	}

	applied := 0
	for key, target := range targets {
		if v, ok := values[key]; ok && v != "" {
			*target = v
			applied++
		}
	}

	log.Printf("[INFO] Applied %d values from secret %s", applied, cfg.AWSSecretID)
	return nil
}
