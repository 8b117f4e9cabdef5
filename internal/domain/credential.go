package domain

import "time"

// Роли realm-а, которыми identity provider описывает права пользователя.
const (
	RoleAdmin  = "ADMIN"
	RoleClient = "CLIENT"
)

// Credential — учётные данные текущей сессии. Значением владеет
// исключительно Session: оно создаётся handshake-ом или обменом кода,
// заменяется при обновлении токена и уничтожается при logout.
type Credential struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
	Subject      string
	Username     string
	Email        string
	Roles        []string
}

// Zero сообщает, что учётных данных нет.
func (c Credential) Zero() bool {
	return c.AccessToken == ""
}

// HasRole проверяет наличие realm-роли в claims токена.
func (c Credential) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ExpiresWithin сообщает, истекает ли access-токен в ближайшие d.
// Токен без известного срока считается истекающим.
func (c Credential) ExpiresWithin(d time.Duration) bool {
	if c.Expiry.IsZero() {
		return true
	}
	return time.Until(c.Expiry) < d
}

// User — владелец сессии в том виде, в котором его показывает интерфейс.
type User struct {
	ID       string
	Username string
	Email    string
	Roles    []string
}
