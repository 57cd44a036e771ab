// Package infra renders the CloudFormation template that hosts orderhook:
// a Lambda function with a public Function URL, an encrypted log group with
// bounded retention, and the KMS key that encrypts it.
package infra

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Options tunes the generated stack.
type Options struct {
	FunctionName     string
	Description      string
	MemorySize       int
	TimeoutSeconds   int
	LogRetentionDays int
	Architecture     string
}

// DefaultOptions mirrors the production deployment.
func DefaultOptions() Options {
	return Options{
		FunctionName:     "orderhook",
		Description:      "Order webhook handler that posts to Slack",
		MemorySize:       128,
		TimeoutSeconds:   30,
		LogRetentionDays: 7,
		Architecture:     "arm64",
	}
}

// Template is a CloudFormation document.
type Template struct {
	AWSTemplateFormatVersion string               `yaml:"AWSTemplateFormatVersion"`
	Description              string               `yaml:"Description"`
	Parameters               map[string]Parameter `yaml:"Parameters"`
	Resources                map[string]Resource  `yaml:"Resources"`
	Outputs                  map[string]Output    `yaml:"Outputs"`
}

// Parameter is a stack input.
type Parameter struct {
	Type        string `yaml:"Type"`
	Description string `yaml:"Description,omitempty"`
	NoEcho      bool   `yaml:"NoEcho,omitempty"`
}

// Resource is a single stack resource.
type Resource struct {
	Type           string         `yaml:"Type"`
	DependsOn      []string       `yaml:"DependsOn,omitempty"`
	DeletionPolicy string         `yaml:"DeletionPolicy,omitempty"`
	Properties     map[string]any `yaml:"Properties"`
}

// Output is a stack output.
type Output struct {
	Description string `yaml:"Description,omitempty"`
	Value       any    `yaml:"Value"`
}

func ref(name string) map[string]any { return map[string]any{"Ref": name} }

func getAtt(res, attr string) map[string]any {
	return map[string]any{"Fn::GetAtt": []string{res, attr}}
}

func sub(s string) map[string]any { return map[string]any{"Fn::Sub": s} }

// Build assembles the template. Zero fields in opts take their defaults.
func Build(opts Options) Template {
	opts = withDefaults(opts)

	return Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Description:              opts.Description,
		Parameters: map[string]Parameter{
			"CodeBucket": {Type: "String", Description: "S3 bucket holding the function zip"},
			"CodeKey":    {Type: "String", Description: "S3 key of the function zip (bootstrap binary)"},
			"FlowSharedSecret": {
				Type:        "String",
				Description: "Bearer token callers must present",
				NoEcho:      true,
			},
			"SlackWebhookUrl": {
				Type:        "String",
				Description: "Slack incoming webhook URL",
				NoEcho:      true,
			},
		},
		Resources: map[string]Resource{
			"LogEncryptionKey":      logKey(),
			"FunctionRole":          functionRole(),
			"FunctionLogGroup":      logGroup(opts),
			"Function":              function(opts),
			"FunctionUrl":           functionURL(),
			"FunctionUrlPermission": functionURLPermission(),
		},
		Outputs: map[string]Output{
			"FunctionUrl": {
				Description: "Function URL for the order webhook",
				Value:       getAtt("FunctionUrl", "FunctionUrl"),
			},
		},
	}
}

func withDefaults(opts Options) Options {
	d := DefaultOptions()
	if opts.FunctionName == "" {
		opts.FunctionName = d.FunctionName
	}
	if opts.Description == "" {
		opts.Description = d.Description
	}
	if opts.MemorySize == 0 {
		opts.MemorySize = d.MemorySize
	}
	if opts.TimeoutSeconds == 0 {
		opts.TimeoutSeconds = d.TimeoutSeconds
	}
	if opts.LogRetentionDays == 0 {
		opts.LogRetentionDays = d.LogRetentionDays
	}
	if opts.Architecture == "" {
		opts.Architecture = d.Architecture
	}
	return opts
}

func logKey() Resource {
	return Resource{
		Type: "AWS::KMS::Key",
		Properties: map[string]any{
			"Description":       "KMS key for encrypting CloudWatch logs",
			"EnableKeyRotation": true,
			"KeyPolicy": map[string]any{
				"Version": "2012-10-17",
				"Statement": []any{
					map[string]any{
						"Sid":       "Enable CloudWatch Logs",
						"Effect":    "Allow",
						"Principal": map[string]any{"Service": sub("logs.${AWS::Region}.amazonaws.com")},
						"Action": []string{
							"kms:Encrypt",
							"kms:Decrypt",
							"kms:ReEncrypt*",
							"kms:GenerateDataKey*",
							"kms:DescribeKey",
						},
						"Resource": "*",
					},
					map[string]any{
						"Sid":       "Enable IAM User Permissions",
						"Effect":    "Allow",
						"Principal": map[string]any{"AWS": sub("arn:${AWS::Partition}:iam::${AWS::AccountId}:root")},
						"Action":    "kms:*",
						"Resource":  "*",
					},
				},
			},
		},
	}
}

func functionRole() Resource {
	return Resource{
		Type: "AWS::IAM::Role",
		Properties: map[string]any{
			"AssumeRolePolicyDocument": map[string]any{
				"Version": "2012-10-17",
				"Statement": []any{
					map[string]any{
						"Effect":    "Allow",
						"Principal": map[string]any{"Service": "lambda.amazonaws.com"},
						"Action":    "sts:AssumeRole",
					},
				},
			},
			"ManagedPolicyArns": []any{
				sub("arn:${AWS::Partition}:iam::aws:policy/service-role/AWSLambdaBasicExecutionRole"),
			},
		},
	}
}

func logGroup(opts Options) Resource {
	return Resource{
		Type:           "AWS::Logs::LogGroup",
		DeletionPolicy: "Delete",
		Properties: map[string]any{
			"LogGroupName":    fmt.Sprintf("/aws/lambda/%s", opts.FunctionName),
			"RetentionInDays": opts.LogRetentionDays,
			"KmsKeyId":        getAtt("LogEncryptionKey", "Arn"),
		},
	}
}

func function(opts Options) Resource {
	return Resource{
		Type:      "AWS::Lambda::Function",
		DependsOn: []string{"FunctionLogGroup"},
		Properties: map[string]any{
			"FunctionName":  opts.FunctionName,
			"Description":   opts.Description,
			"Runtime":       "provided.al2023",
			"Handler":       "bootstrap",
			"Architectures": []string{opts.Architecture},
			"MemorySize":    opts.MemorySize,
			"Timeout":       opts.TimeoutSeconds,
			"Role":          getAtt("FunctionRole", "Arn"),
			"Code": map[string]any{
				"S3Bucket": ref("CodeBucket"),
				"S3Key":    ref("CodeKey"),
			},
			"Environment": map[string]any{
				"Variables": map[string]any{
					"FLOW_SHARED_SECRET":         ref("FlowSharedSecret"),
					"SLACK_WEBHOOK_URL":          ref("SlackWebhookUrl"),
					"ORDERHOOK_CONNECTION_REUSE": "true",
					"ORDERHOOK_ERROR_STACK":      "true",
				},
			},
		},
	}
}

func functionURL() Resource {
	return Resource{
		Type: "AWS::Lambda::Url",
		Properties: map[string]any{
			"TargetFunctionArn": getAtt("Function", "Arn"),
			"AuthType":          "NONE",
			"Cors": map[string]any{
				"AllowCredentials": false,
				"AllowMethods":     []string{"POST"},
				"AllowOrigins":     []string{"*"},
				"AllowHeaders":     []string{"content-type", "authorization"},
			},
		},
	}
}

func functionURLPermission() Resource {
	return Resource{
		Type: "AWS::Lambda::Permission",
		Properties: map[string]any{
			"Action":              "lambda:InvokeFunctionUrl",
			"FunctionName":        ref("Function"),
			"Principal":           "*",
			"FunctionUrlAuthType": "NONE",
		},
	}
}

// Render writes the template as YAML.
func (t Template) Render(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("encode template: %w", err)
	}
	return enc.Close()
}
