package setting

import "time"

const KeyPermissionDefaultMinutes = "permission_default_minutes"

type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}
