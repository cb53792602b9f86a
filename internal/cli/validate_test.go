package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidChain(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), "",
		"map{(element+1)}%>%filter{(element>0)}")
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Valid chain: 2 step(s), 1 map(s)")
	assert.Contains(t, out, "1. map{(element+1)}")
	assert.Contains(t, out, "2. filter{(element>0)}")
	assert.NotContains(t, out, "Already in filter/map form")
}

func TestValidate_CanonicalChainJSON(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), "",
		"filter{(element>0)}%>%map{element}")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, ValidationResult{
		Valid:     true,
		Steps:     []string{"filter{(element>0)}", "map{element}"},
		Maps:      1,
		Canonical: true,
	}, resp.Data)
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		code  string
	}{
		{"type", "filter{(element+1)}", "TYPE ERROR", ErrCodeType},
		{"syntax", "map{element}%>%", "SYNTAX ERROR", ErrCodeSyntax},
		{"boolean map", "map{(element>0)}", "TYPE ERROR", ErrCodeType},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/text", func(t *testing.T) {
			out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), "", tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.want+"\n", out)
			assert.Equal(t, ExitFailure, GetExitCode(err))
		})
		t.Run(tt.name+"/json", func(t *testing.T) {
			out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), "", tt.input)
			require.Error(t, err)

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "error", resp.Status)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.want, resp.Error.Message)
		})
	}
}

func TestValidate_RequiresOneArgument(t *testing.T) {
	_, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}
