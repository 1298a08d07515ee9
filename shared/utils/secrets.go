package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SecretsDir - стандартный путь Docker Secrets. Переменная, чтобы тесты могли подменить.
var SecretsDir = "/run/secrets"

// ReadSecret читает секрет из файла в SecretsDir.
// Если файла нет, пробует переменную окружения с именем секрета в верхнем регистре
// (db_password -> DB_PASSWORD), это нужно для локального запуска без Docker.
func ReadSecret(secretName string) (string, error) {
	filePath := filepath.Join(SecretsDir, secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		envKey := strings.ToUpper(secretName)
		if value := strings.TrimSpace(os.Getenv(envKey)); value != "" {
			return value, nil
		}
		return "", fmt.Errorf("failed to read secret file %s (env %s is empty too): %w", filePath, envKey, err)
	}
	secret := strings.TrimSpace(string(secretBytes))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", filePath)
	}
	return secret, nil
}
