package models

// Article is one record extracted from a single search result item.
// Field order here is the serialization order.
type Article struct {
	Title   string `json:"title" yaml:"title"`
	Authors string `json:"authors" yaml:"authors"`
	Link    string `json:"link" yaml:"link"`
}
