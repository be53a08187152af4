package utils

import "strings"

// MaskName masks a personal name for logging, keeping only the first rune
// of each word.
func MaskName(name string) string {
	if name == "" {
		return "***"
	}
	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		words[i] = string(runes[0]) + strings.Repeat("*", len(runes)-1)
	}
	return strings.Join(words, " ")
}
