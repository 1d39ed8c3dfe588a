package cache

import "strings"

const (
	GlobalKeyPrefix = "pdfquiz"
)

// GenerateCacheKey builds "pdfquiz:<service>:<object>:<id>[:<params joined by _>]".
func GenerateCacheKey(serviceName, objectType, identifier string, paramsKey ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, serviceName, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return strings.Join([]string{baseKey, strings.Join(paramsKey, "_")}, ":")
	}
	return baseKey
}

// SessionKey holds the serialized session.
func SessionKey(sessionID string) string {
	return GenerateCacheKey("session", "state", sessionID)
}

// SelectionsKey holds the selection hash of a session, one field per composite key.
func SelectionsKey(sessionID string) string {
	return GenerateCacheKey("session", "selections", sessionID)
}

// QuizKey holds a generated quiz for a document hash and generation settings.
func QuizKey(documentHash string, settings ...string) string {
	return GenerateCacheKey("quiz", "generated", documentHash, settings...)
}
