package common

import (
	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// RequestIDOrNew 沿用既有請求 ID，缺少時生成新的
func RequestIDOrNew(requestID string) string {
	if requestID != "" {
		return requestID
	}
	return GenerateUUID()
}
