package runner

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"
)

// maxResponseTokens caps the size of one agent report.
const maxResponseTokens = 4096

// APIRunner executes prompts directly against the Anthropic API, or AWS
// Bedrock when configured.
type APIRunner struct {
	client anthropic.Client
	model  anthropic.Model
}

// APIConfig configures an APIRunner.
type APIConfig struct {
	// Model is the Claude model to use. Empty selects a default.
	Model string
	// APIKey overrides the ANTHROPIC_API_KEY environment variable.
	APIKey string
	// UseBedrock routes requests through AWS Bedrock instead of the
	// direct API.
	UseBedrock bool
	// AWSRegion and AWSProfile configure the Bedrock credential chain.
	AWSRegion  string
	AWSProfile string
}

// NewAPIRunner creates an API-backed runner.
func NewAPIRunner(cfg APIConfig) (*APIRunner, error) {
	var opts []option.RequestOption

	if cfg.UseBedrock {
		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.AWSProfile))
		}
		opts = append(opts, bedrock.WithLoadDefaultConfig(context.Background(), loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	model := anthropic.Model(cfg.Model)
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}

	return &APIRunner{
		client: anthropic.NewClient(opts...),
		model:  model,
	}, nil
}

// Run sends the prompt as a single user message and collects the text
// response. API errors are invocation errors; the API has no analog of
// a non-zero exit.
func (r *APIRunner) Run(ctx context.Context, req Request) (*Result, error) {
	if req.TimeBudgetSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeBudgetSeconds)*time.Second)
		defer cancel()
	}

	msg, err := r.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     r.model,
		MaxTokens: maxResponseTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.PromptText)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic request: %w", err)
	}

	var output string
	for _, block := range msg.Content {
		if block.Type == "text" {
			output += block.Text
		}
	}

	res := &Result{
		ExitCode:   0,
		Output:     output,
		TokensUsed: int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
	}
	if score, ok := ParseGroundingScore(output); ok {
		res.GroundingScore = &score
	}
	return res, nil
}

var _ AgentRunner = (*APIRunner)(nil)
