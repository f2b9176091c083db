package setting

import "errors"

var (
	ErrSettingNotFound = errors.New("setting not found")
	ErrCorruptSetting  = errors.New("stored setting value is not valid")
)
