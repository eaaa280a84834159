package domain

import "time"

// Chatbot is the bot an organization pointed at a website. The dashboard
// owns its lifecycle; this core only reads it (site name for the persona
// prompt, URL for sitemap resolution).
type Chatbot struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	SiteName       string    `json:"site_name"`
	URL            string    `json:"url"`
	Description    string    `json:"description,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
