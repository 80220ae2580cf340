package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hupe1980/webscout/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequest() model.Request {
	return model.Request{
		Messages: []model.Message{
			{Role: model.RoleSystem, Parts: []model.Part{model.TextPart("sys")}},
			{Role: model.RoleUser, Parts: []model.Part{model.TextPart("look"), model.ImagePart("image/png", "QUJD")}},
			{Role: model.RoleAssistant, ToolCalls: []model.ToolCall{model.NewToolCall("c1", "go_back", nil)}},
			{Role: model.RoleTool, ToolCallID: "c1", Parts: []model.Part{model.TextPart("ok")}},
		},
		Tools: []model.ToolDefinition{{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        "go_back",
				Description: "Navigate back",
				Parameters:  map[string]any{"type": "object", "properties": map[string]any{}, "required": []string{}, "additionalProperties": false},
				Strict:      true,
			},
		}},
		OutputSchema: &model.OutputSchema{Name: "rows", Schema: map[string]any{"type": "object"}, Strict: true},
	}
}

func TestBuildParams(t *testing.T) {
	m := NewModel(func(o *Options) { o.APIKey = "test"; o.Model = "gpt-test" })

	params := m.buildParams(sampleRequest())

	assert.Equal(t, "gpt-test", params.Model)
	require.Len(t, params.Messages, 4)
	assert.NotNil(t, params.Messages[0].OfSystem)
	require.NotNil(t, params.Messages[1].OfUser)
	assert.Len(t, params.Messages[1].OfUser.Content.OfArrayOfContentParts, 2)
	require.NotNil(t, params.Messages[2].OfAssistant)
	assert.Len(t, params.Messages[2].OfAssistant.ToolCalls, 1)
	require.NotNil(t, params.Messages[3].OfTool)
	assert.Equal(t, "c1", params.Messages[3].OfTool.ToolCallID)

	require.Len(t, params.Tools, 1)
	assert.True(t, params.Tools[0].Function.Strict.Value)
	assert.True(t, params.ParallelToolCalls.Valid())
	assert.False(t, params.ParallelToolCalls.Value)
	require.NotNil(t, params.ResponseFormat.OfJSONSchema)
	assert.Equal(t, "rows", params.ResponseFormat.OfJSONSchema.JSONSchema.Name)
}

func TestBuildParams_NoTools(t *testing.T) {
	m := NewModel(func(o *Options) { o.APIKey = "test" })

	params := m.buildParams(model.Request{Messages: []model.Message{{Role: model.RoleUser, Parts: []model.Part{model.TextPart("hi")}}}})

	assert.Empty(t, params.Tools)
	assert.False(t, params.ParallelToolCalls.Valid())
	assert.Nil(t, params.ResponseFormat.OfJSONSchema)
}

func TestGenerate_ParsesToolCall(t *testing.T) {
	var body map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 0,
			"model": "gpt-test",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": null,
					"tool_calls": [{"id": "c9", "type": "function", "function": {"name": "done", "arguments": "{\"success\":true}"}}]
				}
			}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 2, "total_tokens": 12}
		}`)
	}))
	defer srv.Close()

	m := NewModel(func(o *Options) { o.APIKey = "test"; o.BaseURL = srv.URL + "/" })

	resp, err := m.Generate(context.Background(), sampleRequest())
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "c9", resp.ToolCalls[0].ID)
	assert.Equal(t, "done", resp.ToolCalls[0].Function.Name)
	assert.Equal(t, 12, resp.Usage.TotalTokens)
	assert.Equal(t, false, body["parallel_tool_calls"])
}

func TestInfo(t *testing.T) {
	info := NewModel(func(o *Options) { o.APIKey = "test"; o.Model = "gpt-x" }).Info()
	assert.Equal(t, "openai", info.Provider)
	assert.Equal(t, "gpt-x", info.Name)
}
