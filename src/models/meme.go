package models

type MMeme struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"imageUrl"`
	AltText  string `json:"altText"`
}
