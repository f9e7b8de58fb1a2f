package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Setting keys stored in the app_settings table
const (
	SettingFileNumberPrefix   = "fileNumberPrefix"
	SettingFileNumberSequence = "fileNumberSequence"
	SettingFileNumberPadding  = "fileNumberPadding"
	SettingBusinessName       = "businessName"
	SettingBusinessEmail      = "businessEmail"
	SettingBusinessPhone      = "businessPhone"
	SettingBusinessAddress    = "businessAddress"
	SettingBusinessWebsite    = "businessWebsite"
)

// AppSettings is the typed view over the app_settings key/value table
type AppSettings struct {
	FileNumberPrefix   string    `json:"fileNumberPrefix"`
	FileNumberSequence int       `json:"fileNumberSequence"`
	FileNumberPadding  int       `json:"fileNumberPadding"`
	BusinessName       string    `json:"businessName"`
	BusinessEmail      string    `json:"businessEmail"`
	BusinessPhone      string    `json:"businessPhone"`
	BusinessAddress    string    `json:"businessAddress"`
	BusinessWebsite    string    `json:"businessWebsite"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// DefaultAppSettings returns the settings used when a key has never been stored
func DefaultAppSettings() AppSettings {
	return AppSettings{
		FileNumberPrefix:   "ULF",
		FileNumberSequence: 1,
		FileNumberPadding:  4,
	}
}

// FileNumberSettings is the locked counter state used by the file number generator
type FileNumberSettings struct {
	Prefix   string
	Sequence int
	Padding  int
}

// SettingInt decodes a stored setting that may be a JSON number or a numeric string
func SettingInt(raw []byte) (int, error) {
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return 0, err
	}
	switch t := v.(type) {
	case json.Number:
		n = t
	case string:
		n = json.Number(strings.TrimSpace(t))
	default:
		return 0, fmt.Errorf("setting is %T, not a number", v)
	}
	i, err := n.Int64()
	if err != nil {
		return 0, fmt.Errorf("setting %q is not an integer", n)
	}
	return int(i), nil
}

// SettingString decodes a stored setting that should be a JSON string.
// Numbers are rendered as text.
func SettingString(raw []byte) (string, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case nil:
		return "", nil
	case float64, bool:
		return fmt.Sprint(t), nil
	default:
		return "", fmt.Errorf("setting is %T, not a string", v)
	}
}
