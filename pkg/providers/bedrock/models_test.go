package bedrock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelMapper_Resolve(t *testing.T) {
	mapper := NewModelMapper()

	tests := []struct {
		name       string
		model      string
		expected   string
		wasAliased bool
	}{
		{"short alias", "claude-3-haiku", "anthropic.claude-3-haiku-20240307-v1:0", true},
		{"dated alias", "claude-3-sonnet-20240229", "anthropic.claude-3-sonnet-20240229-v1:0", true},
		{"case insensitive", "Claude-3-Haiku", "anthropic.claude-3-haiku-20240307-v1:0", true},
		{"surrounding space", "  claude-instant ", "anthropic.claude-instant-v1", true},
		{"other vendor alias", "llama2-70b-chat", "meta.llama2-70b-chat-v1", true},
		{"bedrock id passes through", "anthropic.claude-3-haiku-20240307-v1:0", "anthropic.claude-3-haiku-20240307-v1:0", false},
		{"titan id passes through", "amazon.titan-text-lite-v1", "amazon.titan-text-lite-v1", false},
		{"unknown name unchanged", "mistral.mistral-7b-instruct-v0:2", "mistral.mistral-7b-instruct-v0:2", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, aliased := mapper.Resolve(tt.model)
			assert.Equal(t, tt.expected, id)
			assert.Equal(t, tt.wasAliased, aliased)
		})
	}
}

func TestModelMapper_CustomAliases(t *testing.T) {
	mapper := NewModelMapperWithAliases(map[string]string{
		"fast":           "anthropic.claude-3-haiku-20240307-v1:0",
		"claude-3-haiku": "anthropic.claude-instant-v1",
	})

	id, ok := mapper.Resolve("FAST")
	assert.True(t, ok)
	assert.Equal(t, "anthropic.claude-3-haiku-20240307-v1:0", id)

	id, ok = mapper.Resolve("claude-3-haiku")
	assert.True(t, ok)
	assert.Equal(t, "anthropic.claude-instant-v1", id, "custom aliases override defaults")

	// the defaults table itself is untouched
	assert.Equal(t, "anthropic.claude-3-haiku-20240307-v1:0", DefaultModelAliases["claude-3-haiku"])
}

func TestModelMapper_AliasesIsACopy(t *testing.T) {
	mapper := NewModelMapper()
	aliases := mapper.Aliases()
	aliases["claude-3-haiku"] = "changed"

	id, _ := mapper.Resolve("claude-3-haiku")
	assert.Equal(t, "anthropic.claude-3-haiku-20240307-v1:0", id)
}

func TestModelMapper_SupportedAliasesSorted(t *testing.T) {
	names := NewModelMapper().SupportedAliases()
	require.Len(t, names, len(DefaultModelAliases))
	assert.IsIncreasing(t, names)
}

func TestModelMapper_ConcurrentUse(t *testing.T) {
	mapper := NewModelMapper()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			mapper.AddAliases(map[string]string{"alias": "anthropic.claude-instant-v1"})
		}()
		go func() {
			defer wg.Done()
			mapper.Resolve("claude-3-haiku")
		}()
	}
	wg.Wait()

	id, ok := mapper.Resolve("alias")
	assert.True(t, ok)
	assert.Equal(t, "anthropic.claude-instant-v1", id)
}

func TestIsBedrockModelID(t *testing.T) {
	assert.True(t, IsBedrockModelID("anthropic.claude-instant-v1"))
	assert.True(t, IsBedrockModelID("cohere.command-text-v14"))
	assert.False(t, IsBedrockModelID("claude-3-haiku"))
	assert.False(t, IsBedrockModelID(""))
}

func TestFoundationModels(t *testing.T) {
	models := FoundationModels()
	require.Len(t, models, 12)

	assert.Equal(t, "anthropic.claude-3-5-sonnet-20240620-v1:0", models[0].ID)
	assert.Equal(t, "Claude 3.5 Sonnet", models[0].Name)
	assert.Equal(t, "meta.llama2-70b-chat-v1", models[11].ID)

	seen := make(map[string]bool)
	for _, m := range models {
		assert.False(t, seen[m.ID], "duplicate id %s", m.ID)
		seen[m.ID] = true
		assert.NotEmpty(t, m.Name)
		assert.NotEmpty(t, m.Description)
		assert.Nil(t, m.CreatedAt)
		assert.True(t, IsBedrockModelID(m.ID), "%s should route to a known vendor", m.ID)
	}

	// each curated model is reachable through at least one vendor route
	vendors := make(map[Vendor]bool)
	for _, m := range models {
		vendors[VendorFor(m.ID)] = true
	}
	assert.Len(t, vendors, 5)
}

func TestFoundationModels_FreshSlice(t *testing.T) {
	first := FoundationModels()
	first[0].Name = "mutated"
	assert.Equal(t, "Claude 3.5 Sonnet", FoundationModels()[0].Name)
}
