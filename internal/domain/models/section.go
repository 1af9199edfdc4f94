package models

import "encoding/json"

// SectionType тег раздела контента
type SectionType string

const (
	SectionIntro              SectionType = "intro"
	SectionHighlight          SectionType = "highlight"
	SectionGallery            SectionType = "gallery"
	SectionExperience         SectionType = "experience"
	SectionRegionalDelicacies SectionType = "regionalDelicacies"
	SectionLastImage          SectionType = "lastImage"
)

// Section запись раздела в формате, который ожидает бэкенд.
// Формат content зависит от type.
type Section struct {
	Type    SectionType     `json:"type"`
	Title   string          `json:"title,omitempty"`
	Content json.RawMessage `json:"content"`
}

// HighlightItem элемент раздела highlight
type HighlightItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// DishItem блюдо раздела regionalDelicacies; Image хранит имя файла
type DishItem struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// DelicaciesContent содержимое раздела regionalDelicacies
type DelicaciesContent struct {
	Intro  string     `json:"intro"`
	Dishes []DishItem `json:"dishes"`
}

// Media загруженный файл сущности: имя и публичный URL
type Media struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}
