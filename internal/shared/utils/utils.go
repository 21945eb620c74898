package utils

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hibiken/asynq"
)

// UnmarshalTask decodes an asynq task payload into v.
func UnmarshalTask(t *asynq.Task, v interface{}) error {
	if err := json.Unmarshal(t.Payload(), v); err != nil {
		return fmt.Errorf("task %s: %w", t.Type(), err)
	}
	return nil
}

// GetEnvVariable reads an environment variable with a fallback default.
func GetEnvVariable(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
