package catalog

var (
	textOnly      = Modalities{Input: []string{"text"}, Output: []string{"text"}}
	textImage     = Modalities{Input: []string{"text", "image"}, Output: []string{"text"}}
	textImageAV   = Modalities{Input: []string{"text", "image", "audio", "video"}, Output: []string{"text"}}
	textImageVid  = Modalities{Input: []string{"text", "image", "video"}, Output: []string{"text"}}
	freeOfCharge  = &Cost{}
	grokFastCosts = &Cost{Input: 0.2, Output: 0.5, CacheRead: 0.05}
)

// Builtin returns the registry compiled into the binary.
func Builtin() *Registry {
	return NewRegistry(builtinProviders()...)
}

func builtinProviders() []Provider {
	return []Provider{
		{
			ID:   "openai",
			Name: "OpenAI",
			API:  "https://api.openai.com/v1",
			Doc:  "https://platform.openai.com/docs",
			Env:  []string{"OPENAI_API_KEY"},
			Models: map[string]Model{
				"gpt-4o": {
					ID: "gpt-4o", Name: "GPT-4o", Family: "gpt-4o",
					Attachment: true, ToolCall: true, StructuredOutput: true, Temperature: true,
					Knowledge: "2024-11", Modalities: textImage,
					Cost:  &Cost{Input: 5.0, Output: 15.0},
					Limit: &Limit{Context: 128000, Output: 16384},
				},
				"gpt-4o-mini": {
					ID: "gpt-4o-mini", Name: "GPT-4o Mini", Family: "gpt-4o",
					ToolCall: true, StructuredOutput: true, Temperature: true,
					Knowledge: "2024-11", Modalities: textImage,
					Cost:  &Cost{Input: 0.15, Output: 0.6},
					Limit: &Limit{Context: 128000, Output: 16384},
				},
				"o1": {
					ID: "o1", Name: "o1", Family: "o-series",
					Reasoning: true, ToolCall: true,
					Knowledge: "2024-12", Modalities: textOnly,
					Cost:  &Cost{Input: 15.0, Output: 60.0},
					Limit: &Limit{Context: 200000, Output: 100000},
				},
			},
		},
		{
			ID:   "anthropic",
			Name: "Anthropic",
			API:  "https://api.anthropic.com/v1",
			Doc:  "https://docs.anthropic.com/",
			Env:  []string{"ANTHROPIC_API_KEY"},
			Models: map[string]Model{
				"claude-3-5-sonnet-20241022": {
					ID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet", Family: "claude-3-5",
					Attachment: true, ToolCall: true, StructuredOutput: true, Temperature: true,
					Knowledge: "2024-10", Modalities: textImage,
					Cost:        &Cost{Input: 3.0, Output: 15.0},
					Limit:       &Limit{Context: 200000, Output: 8192},
					WireAdapter: AdapterAnthropic,
				},
				"claude-3-5-haiku-20241022": {
					ID: "claude-3-5-haiku-20241022", Name: "Claude 3.5 Haiku", Family: "claude-3-5",
					Attachment: true, ToolCall: true, StructuredOutput: true, Temperature: true,
					Knowledge: "2024-10", Modalities: textImage,
					Cost:        &Cost{Input: 0.25, Output: 1.25},
					Limit:       &Limit{Context: 200000, Output: 8192},
					WireAdapter: AdapterAnthropic,
				},
				"claude-3-opus-20240229": {
					ID: "claude-3-opus-20240229", Name: "Claude 3 Opus", Family: "claude-3",
					Attachment: true, Reasoning: true, ToolCall: true, StructuredOutput: true, Temperature: true,
					Knowledge: "2024-08", Modalities: textImage,
					Cost:        &Cost{Input: 15.0, Output: 75.0},
					Limit:       &Limit{Context: 200000, Output: 4096},
					WireAdapter: AdapterAnthropic,
				},
			},
		},
		{
			ID:   "google",
			Name: "Google",
			API:  "https://generativelanguage.googleapis.com/v1beta/openai",
			Doc:  "https://ai.google.dev/docs",
			Env:  []string{"GOOGLE_API_KEY"},
			Models: map[string]Model{
				"gemini-1.5-pro": {
					ID: "gemini-1.5-pro", Name: "Gemini 1.5 Pro", Family: "gemini-1.5",
					Attachment: true, Reasoning: true, ToolCall: true, StructuredOutput: true, Temperature: true,
					Knowledge: "2024-09", Modalities: textImageAV,
					Cost:  &Cost{Input: 1.25, Output: 5.0},
					Limit: &Limit{Context: 2000000, Output: 8192},
				},
				"gemini-1.5-flash": {
					ID: "gemini-1.5-flash", Name: "Gemini 1.5 Flash", Family: "gemini-1.5",
					Attachment: true, ToolCall: true, StructuredOutput: true, Temperature: true,
					Knowledge: "2024-09", Modalities: textImageAV,
					Cost:  &Cost{Input: 0.075, Output: 0.3},
					Limit: &Limit{Context: 1000000, Output: 8192},
				},
			},
		},
		{
			ID:   "xai",
			Name: "xAI",
			API:  "https://api.x.ai/v1",
			Doc:  "https://docs.x.ai/",
			Env:  []string{"XAI_API_KEY"},
			Models: map[string]Model{
				"grok-4-1-fast": {
					ID: "grok-4-1-fast", Name: "Grok 4.1 Fast", Family: "grok",
					Attachment: true, Reasoning: true, ToolCall: true, StructuredOutput: true, Temperature: true,
					Knowledge: "2025-07", ReleaseDate: "2025-11-19", LastUpdated: "2025-11-19",
					Modalities: textImage, Cost: grokFastCosts,
					Limit: &Limit{Context: 2000000, Output: 30000},
				},
				"grok-4-1-fast-non-reasoning": {
					ID: "grok-4-1-fast-non-reasoning", Name: "Grok 4.1 Fast (Non-Reasoning)", Family: "grok",
					Attachment: true, ToolCall: true, StructuredOutput: true, Temperature: true,
					Knowledge: "2025-07", ReleaseDate: "2025-11-19", LastUpdated: "2025-11-19",
					Modalities: textImage, Cost: grokFastCosts,
					Limit: &Limit{Context: 2000000, Output: 30000},
				},
				"grok-code-fast-1": {
					ID: "grok-code-fast-1", Name: "Grok Code Fast 1", Family: "grok",
					Reasoning: true, ToolCall: true, StructuredOutput: true, Temperature: true,
					Knowledge: "2023-10", ReleaseDate: "2025-08-28", LastUpdated: "2025-08-28",
					Modalities: textOnly, Cost: grokFastCosts,
					Limit: &Limit{Context: 2000000, Output: 30000},
				},
			},
		},
		{
			ID:   "deepseek",
			Name: "DeepSeek",
			API:  "https://api.deepseek.com/v1",
			Doc:  "https://platform.deepseek.com/",
			Env:  []string{"DEEPSEEK_API_KEY"},
			Models: map[string]Model{
				"deepseek-chat": {
					ID: "deepseek-chat", Name: "DeepSeek Chat", Family: "deepseek",
					ToolCall: true, StructuredOutput: true, Temperature: true,
					Knowledge: "2024-11", Modalities: textOnly,
					Cost:  &Cost{Input: 0.14, Output: 0.28},
					Limit: &Limit{Context: 131072, Output: 8192},
				},
			},
		},
		{
			ID:   "openrouter",
			Name: "OpenRouter",
			API:  "https://openrouter.ai/api/v1",
			Doc:  "https://openrouter.ai/docs",
			Env:  []string{"OPENROUTER_API_KEY"},
			Models: map[string]Model{
				"deepseek/deepseek-r1": {
					ID: "deepseek/deepseek-r1", Name: "DeepSeek R1 (OpenRouter)", Family: "deepseek-r1",
					Reasoning: true, Knowledge: "2024-12", Modalities: textOnly,
					Cost:  freeOfCharge,
					Limit: &Limit{Context: 131072, Output: 8192},
				},
			},
		},
		{
			ID:   "opencode",
			Name: "OpenCode",
			API:  "https://opencode.ai/zen/v1",
			Doc:  "https://opencode.ai/",
			Env:  []string{"OPENCODE_API_KEY"},
			Models: map[string]Model{
				"gpt-5-nano": {
					ID: "gpt-5-nano", Name: "GPT-5 Nano", Family: "gpt-nano",
					Attachment: true, Reasoning: true, ToolCall: true, StructuredOutput: true,
					Knowledge: "2024-05-30", ReleaseDate: "2025-08-07", LastUpdated: "2025-08-07",
					Modalities: textImage, Cost: freeOfCharge,
					Limit: &Limit{Context: 400000, Input: 272000, Output: 128000},
				},
				"big-pickle": {
					ID: "big-pickle", Name: "Big Pickle", Family: "big-pickle",
					Reasoning: true, ToolCall: true, Temperature: true,
					Knowledge: "2025-01", ReleaseDate: "2025-10-17", LastUpdated: "2025-10-17",
					Modalities: textOnly, Cost: freeOfCharge,
					Limit: &Limit{Context: 200000, Output: 128000},
				},
				"glm-4.7-free": {
					ID: "glm-4.7-free", Name: "GLM-4.7", Family: "glm-free",
					Reasoning: true, ToolCall: true, Temperature: true, OpenWeights: true,
					Knowledge: "2025-04", ReleaseDate: "2025-12-22", LastUpdated: "2025-12-22",
					Modalities: textOnly, Cost: freeOfCharge,
					Limit: &Limit{Context: 204800, Output: 131072},
				},
				"grok-code": {
					ID: "grok-code", Name: "Grok Code Fast 1", Family: "grok",
					Attachment: true, Reasoning: true, ToolCall: true, Temperature: true,
					ReleaseDate: "2025-08-20", LastUpdated: "2025-08-20",
					Modalities: textOnly, Cost: freeOfCharge,
					Limit: &Limit{Context: 256000, Output: 256000},
				},
				"minimax-m2.1-free": {
					ID: "minimax-m2.1-free", Name: "MiniMax M2.1", Family: "minimax",
					Reasoning: true, ToolCall: true, Temperature: true, OpenWeights: true,
					Knowledge: "2025-01", ReleaseDate: "2025-12-23", LastUpdated: "2025-12-23",
					Modalities: textOnly, Cost: freeOfCharge,
					Limit:       &Limit{Context: 204800, Output: 131072},
					WireAdapter: AdapterAnthropic,
				},
			},
		},
		{
			ID:   "zhipuai",
			Name: "Zhipu AI",
			API:  "https://open.bigmodel.cn/api/paas/v4",
			Doc:  "https://docs.z.ai/guides/overview/pricing",
			Env:  []string{"ZHIPU_API_KEY"},
			Models: map[string]Model{
				"glm-4.6v-flash": {
					ID: "glm-4.6v-flash", Name: "GLM-4.6V-Flash", Family: "glm",
					Attachment: true, Reasoning: true, ToolCall: true, Temperature: true, OpenWeights: true,
					Knowledge: "2025-04", ReleaseDate: "2025-12-08", LastUpdated: "2025-12-08",
					Modalities: textImageVid, Cost: freeOfCharge,
					Limit: &Limit{Context: 128000, Output: 32768},
				},
				"glm-4.7-flash": {
					ID: "glm-4.7-flash", Name: "GLM-4.7-Flash", Family: "glm-flash",
					Reasoning: true, ToolCall: true, Temperature: true, OpenWeights: true,
					Knowledge: "2025-04", ReleaseDate: "2026-01-19", LastUpdated: "2026-01-19",
					Modalities: textOnly, Cost: freeOfCharge,
					Limit: &Limit{Context: 200000, Output: 131072},
				},
			},
		},
	}
}
