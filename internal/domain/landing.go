package domain

import "time"

type CarouselSlide struct {
	ID        string    `json:"id"`
	ImagePath string    `json:"image_path"`
	Caption   string    `json:"caption,omitempty"`
	Position  int       `json:"position"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type HeroBackground struct {
	ID        string    `json:"id"`
	ImagePath string    `json:"image_path"`
	Label     string    `json:"label,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
