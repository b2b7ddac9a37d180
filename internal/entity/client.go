package entity

// Client is the authenticated caller of the analysis API, usually a
// navigation device.
type Client struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
