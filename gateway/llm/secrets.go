// Copyright 2025 AxonFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package llm

import (
	"context"
	"encoding/json"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretFetcher retrieves a secret value by ARN (enables testing).
type SecretFetcher interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// ResolveAPIKeySecret fetches an API key stored in AWS Secrets Manager.
// The secret may be a plain string or a JSON object carrying the key
// under "api_key" or "value". Called once at startup, so no caching.
func ResolveAPIKeySecret(ctx context.Context, secretARN, region string) (string, error) {
	cfgOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		cfgOpts = append(cfgOpts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, cfgOpts...)
	if err != nil {
		return "", fmt.Errorf("failed to load AWS config: %w", err)
	}

	return resolveAPIKeySecret(ctx, secretsmanager.NewFromConfig(cfg), secretARN)
}

func resolveAPIKeySecret(ctx context.Context, client SecretFetcher, secretARN string) (string, error) {
	result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &secretARN,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get secret %s: %w", maskARN(secretARN), err)
	}

	if result.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", maskARN(secretARN))
	}
	secretValue := *result.SecretString

	// JSON-object secrets carry the key under a named field; plain-string
	// secrets are the key itself.
	var fields map[string]string
	if err := json.Unmarshal([]byte(secretValue), &fields); err == nil {
		for _, name := range []string{"api_key", "value"} {
			if v, ok := fields[name]; ok && v != "" {
				return v, nil
			}
		}
		return "", fmt.Errorf("secret %s JSON has no api_key or value field", maskARN(secretARN))
	}

	return secretValue, nil
}

// maskARN hides the secret name portion of an ARN in log and error text.
func maskARN(arn string) string {
	if len(arn) <= 20 {
		return "***"
	}
	return arn[:20] + "***"
}
