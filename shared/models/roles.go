package models

import "slices"

// Роли, которые выдает провайдер идентификации.
const (
	RoleAdmin = "ROLE_ADMIN"
	RoleUser  = "ROLE_USER"
)

// HasRole проверяет, есть ли у пользователя указанная роль.
func HasRole(userRoles []string, targetRole string) bool {
	return slices.Contains(userRoles, targetRole)
}

