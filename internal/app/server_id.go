package app

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

// GenerateInstanceID 生成导出器实例ID，用于日志与多实例排障。
// 优先使用环境变量 SDS011_INSTANCE_ID，否则生成UUID。
func GenerateInstanceID() string {
	if id := os.Getenv("SDS011_INSTANCE_ID"); id != "" {
		return id
	}

	// 生成格式：sds011-exporter-{hostname}-{uuid}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	shortUUID := uuid.New().String()[:8]
	return fmt.Sprintf("sds011-exporter-%s-%s", hostname, shortUUID)
}
