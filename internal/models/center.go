package models

// Center is an owning organization for events. ID doubles as the
// directory key and the document file name. Fullcity is derived once
// through geocoding and then cached on the record.
type Center struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Country  string   `json:"country"`
	Users    []string `json:"users,omitempty"`
	Program  string   `json:"program,omitempty"`
	About    string   `json:"about,omitempty"`
	Fullcity string   `json:"fullcity,omitempty"`
}

// HasUser reports whether the given user id is on the center's roster.
func (c *Center) HasUser(userID string) bool {
	if c == nil {
		return false
	}
	for _, u := range c.Users {
		if u == userID {
			return true
		}
	}
	return false
}

// CenterView is a center plus read-time derived fields.
type CenterView struct {
	Center
	MapURL string `json:"mapUrl,omitempty"`
}
