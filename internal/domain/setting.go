package domain

// SettingNightStart is the key of the global night-rate cutoff.
const SettingNightStart = "night_start"

const DefaultNightStart = "19:00"

type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
