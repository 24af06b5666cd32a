package memory

// EstimateTokens approximates the token count of text at roughly four
// bytes per token, rounding up. Persisted token figures depend on this
// exact formula: changing it is a breaking change to historical rows, so
// it stays frozen even if better estimators become available.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4
}
