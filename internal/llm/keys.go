package llm

import (
	"os"
	"strings"
)

// KeyLookup resolves environment variables. os.LookupEnv satisfies it.
type KeyLookup func(key string) (string, bool)

// keyEnvVars lists the environment variables checked for each provider, in order.
var keyEnvVars = map[string][]string{
	ProviderOpenAI:    {"OPENAI_API_KEY"},
	ProviderGemini:    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	ProviderAnthropic: {"ANTHROPIC_API_KEY"},
}

// ResolveKey returns explicit when set, otherwise the provider's environment variable.
func ResolveKey(provider, explicit string, lookup KeyLookup) string {
	if k := strings.TrimSpace(explicit); k != "" {
		return k
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, name := range keyEnvVars[provider] {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
