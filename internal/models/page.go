package models

// PageData is the view data handed to every HTML template
type PageData struct {
	Title      string
	User       *User
	Flashes    []Flash
	APIHealthy bool
	APIBaseURL string
	// CurrentTime is the server wall clock as HH:MM:SS
	CurrentTime string
	// Data carries page specific values
	Data map[string]interface{}
}

// UserID returns the id of the logged in user, or 0
func (p *PageData) UserID() int64 {
	if p.User == nil {
		return 0
	}
	return p.User.ID
}
