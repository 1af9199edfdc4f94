package sections

import (
	"encoding/json"
	"fmt"

	"github.com/athebyme/travel-admin/internal/domain/models"
)

// passthroughSection раздел неизвестного типа, который сохраняется как есть
// и возвращается в бэкенд после известных разделов
type passthroughSection = models.Section

// Load восстанавливает форму из сохраненных разделов сущности.
// media сопоставляет имена файлов с публичными URL; все изображения
// после загрузки считаются удаленными и повторно не отправляются.
// Повторяющиеся разделы одного типа сливаются: списки дополняются,
// скалярные значения перезаписываются.
func Load(stored []models.Section, media []models.Media) (*Builder, error) {
	urls := make(map[string]string, len(media))
	for _, m := range media {
		urls[m.Name] = m.URL
	}
	remote := func(name string) ImageRef {
		return RemoteImage(name, urls[name])
	}

	b := NewBuilder()
	for i, sec := range stored {
		if err := b.loadSection(sec, remote); err != nil {
			return nil, fmt.Errorf("section %d (%s): %w", i, sec.Type, err)
		}
	}
	return b, nil
}

func (b *Builder) loadSection(sec models.Section, remote func(string) ImageRef) error {
	switch sec.Type {
	case models.SectionIntro:
		var content string
		if err := decode(sec.Content, &content); err != nil {
			return err
		}
		b.introTitle, b.introContent = sec.Title, content

	case models.SectionHighlight:
		var items []models.HighlightItem
		if err := decode(sec.Content, &items); err != nil {
			return err
		}
		for _, it := range items {
			b.highlights = append(b.highlights, HighlightEntry{Title: it.Title, Description: it.Description})
		}

	case models.SectionGallery:
		var names []string
		if err := decode(sec.Content, &names); err != nil {
			return err
		}
		for _, name := range names {
			if name != "" {
				b.gallery = append(b.gallery, remote(name))
			}
		}

	case models.SectionExperience:
		var content string
		if err := decode(sec.Content, &content); err != nil {
			return err
		}
		b.experience = content

	case models.SectionRegionalDelicacies:
		var content models.DelicaciesContent
		if err := decode(sec.Content, &content); err != nil {
			return err
		}
		b.delicaciesIntro = content.Intro
		for _, d := range content.Dishes {
			b.dishes = append(b.dishes, DishEntry{Name: d.Name})
			var img *ImageRef
			if d.Image != "" {
				ref := remote(d.Image)
				img = &ref
			}
			b.dishImages = append(b.dishImages, img)
		}

	case models.SectionLastImage:
		var name string
		if err := decode(sec.Content, &name); err != nil {
			return err
		}
		if name == "" {
			b.lastImage = nil
			break
		}
		ref := remote(name)
		b.lastImage = &ref

	default:
		b.passthrough = append(b.passthrough, sec)
	}
	return nil
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}
