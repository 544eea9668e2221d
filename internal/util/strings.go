package util

// SafeTruncate truncates s to at most maxLen bytes without panicking.
// It is used to log a prefix of identifiers such as session IDs.
// A negative maxLen is treated as 0.
//
// Example:
//
//	SafeTruncate("3f1c2a9e-8b7d-4e6f", 8) // Returns: "3f1c2a9e"
//	SafeTruncate("short", 10)             // Returns: "short"
func SafeTruncate(s string, maxLen int) string {
	if maxLen < 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
