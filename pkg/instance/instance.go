package instance

import "github.com/sdfoods/restaurant-backend/pkg/env"

// GetID names the running process for logs and cron lock ownership. Heroku
// sets DYNO; containers usually only have HOSTNAME.
func GetID() string {
	if id := env.Get("DYNO", ""); id != "" {
		return id
	}
	return env.Get("HOSTNAME", "local")
}
