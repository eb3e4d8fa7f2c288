package model

import (
	"strings"

	"github.com/google/uuid"
)

// NewID はプレフィックス付きの短い識別子を生成する（例: "user_1a2b3c4d5e6f"）。
// UUIDv4の先頭12桁の16進表現を使用する。
func NewID(prefix string) string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return prefix + "_" + hex[:12]
}
