package main

import "strings"

const tokenEnvPrefix = "CASQUE_TOKEN_"

// tokensFromEnv collects token ids from CASQUE_TOKEN_<username>=<token id> entries
func tokensFromEnv(environ []string) map[string]string {
	tokens := make(map[string]string)
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, tokenEnvPrefix) {
			continue
		}
		if user := strings.TrimPrefix(key, tokenEnvPrefix); user != "" {
			tokens[user] = value
		}
	}
	return tokens
}
