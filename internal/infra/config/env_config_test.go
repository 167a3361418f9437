package config_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/mkrupp/renewbot/internal/infra/config"
)

type testConfig struct {
	EnvConfig

	StringValue string `env:"STRING_VALUE" default:"default"`
	IntValue    int    `env:"INT_VALUE" default:"42"`
	Int64Value  int64  `env:"INT64_VALUE" default:"7"`
	BoolValue   bool   `env:"BOOL_VALUE" default:"true"`
	NoEnvTag    string
	Nested      testNestedConfig `envPrefix:"NESTED_"`
}

type testNestedConfig struct {
	NestedString string `env:"STRING" default:"nested-default"`
}

type requiredConfig struct {
	EnvConfig

	Required string `env:"REQUIRED_VALUE"`
}

//nolint:paralleltest
func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		envVars map[string]string
		want    testConfig
		wantErr bool
	}{
		{
			name:    "uses default values when env vars not set",
			prefix:  "",
			envVars: map[string]string{},
			want: testConfig{
				StringValue: "default",
				IntValue:    42,
				Int64Value:  7,
				BoolValue:   true,
				Nested: testNestedConfig{
					NestedString: "nested-default",
				},
			},
		},
		{
			name:   "reads environment variables",
			prefix: "",
			envVars: map[string]string{
				"STRING_VALUE":  "env-value",
				"INT_VALUE":     "123",
				"INT64_VALUE":   "456",
				"BOOL_VALUE":    "false",
				"NESTED_STRING": "env-nested",
			},
			want: testConfig{
				StringValue: "env-value",
				IntValue:    123,
				Int64Value:  456,
				BoolValue:   false,
				Nested: testNestedConfig{
					NestedString: "env-nested",
				},
			},
		},
		{
			name:   "applies the prefix",
			prefix: "RENEWBOT",
			envVars: map[string]string{
				"RENEWBOT_STRING_VALUE":  "prefixed",
				"RENEWBOT_NESTED_STRING": "prefixed-nested",
			},
			want: testConfig{
				StringValue: "prefixed",
				IntValue:    42,
				Int64Value:  7,
				BoolValue:   true,
				Nested: testNestedConfig{
					NestedString: "prefixed-nested",
				},
			},
		},
		{
			name:   "invalid int value",
			prefix: "",
			envVars: map[string]string{
				"INT_VALUE": "not-a-number",
			},
			wantErr: true,
		},
		{
			name:   "invalid bool value",
			prefix: "",
			envVars: map[string]string{
				"BOOL_VALUE": "not-a-bool",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			var cfg testConfig

			err := Parse(context.Background(), &cfg, tt.prefix)

			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}

			if cfg.StringValue != tt.want.StringValue ||
				cfg.IntValue != tt.want.IntValue ||
				cfg.Int64Value != tt.want.Int64Value ||
				cfg.BoolValue != tt.want.BoolValue ||
				cfg.Nested != tt.want.Nested {
				t.Errorf("Parse() = %+v, want %+v", cfg, tt.want)
			}
		})
	}
}

//nolint:paralleltest
func TestParse_RequiredVariable(t *testing.T) {
	var cfg requiredConfig

	err := Parse(context.Background(), &cfg, "")
	if !errors.Is(err, ErrVarNotSet) {
		t.Fatalf("Parse() error = %v, want ErrVarNotSet", err)
	}

	t.Setenv("REQUIRED_VALUE", "set")

	if err := Parse(context.Background(), &cfg, ""); err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}
	if cfg.Required != "set" {
		t.Errorf("Parse() Required = %q, want %q", cfg.Required, "set")
	}
}

func TestParse_RejectsNonStruct(t *testing.T) {
	t.Parallel()

	var notAStruct int

	if err := Parse(context.Background(), &notAStruct, ""); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Parse() error = %v, want ErrInvalidConfig", err)
	}
}
