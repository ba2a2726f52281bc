package monitor

import "time"

type Status struct {
	Services   map[string]bool `json:"services"`
	Buffer     bool            `json:"buffer"`
	BufferSize int             `json:"buffer_size"`
	LastCheck  time.Time       `json:"last_check"`
}

// Healthy reports whether every probed service answered.
func (s Status) Healthy() bool {
	if len(s.Services) == 0 {
		return !s.LastCheck.IsZero()
	}
	for _, ok := range s.Services {
		if !ok {
			return false
		}
	}
	return true
}
