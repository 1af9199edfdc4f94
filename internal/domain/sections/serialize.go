package sections

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/athebyme/travel-admin/internal/domain/models"
)

// Policy поведение при частично заполненных элементах
type Policy int

const (
	// PolicyLenient молча пропускает неполные элементы
	PolicyLenient Policy = iota
	// PolicyStrict отклоняет сериализацию со списком неполных элементов
	PolicyStrict
)

// Имена частей multipart-формы для новых файлов
const (
	PartGallery    = "gallery[]"
	PartDelicacies = "regionalDelicacies[]"
	PartLastImage  = "lastImage"
)

// Attachment бинарная часть формы для нового изображения
type Attachment struct {
	Field       string
	FileName    string
	ContentType string
	Data        []byte
}

// Payload результат сериализации формы
type Payload struct {
	Sections    []models.Section
	Attachments []Attachment
}

// SectionsJSON массив разделов для поля sections формы
func (p *Payload) SectionsJSON() ([]byte, error) {
	if p.Sections == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p.Sections)
}

// Serialize собирает разделы в каноническом порядке.
// Раздел попадает в результат только если в нем есть содержательные данные.
// Уже загруженные изображения передаются по имени и не дублируются вложениями.
// Разделы неизвестных типов идут после всех известных в порядке загрузки.
func (b *Builder) Serialize(policy Policy) (*Payload, error) {
	if policy == PolicyStrict {
		var partial []string
		for _, kind := range registry {
			if kind.partial != nil {
				partial = append(partial, kind.partial(b)...)
			}
		}
		if len(partial) > 0 {
			return nil, &ValidationError{Fields: partial}
		}
	}

	p := &Payload{Sections: make([]models.Section, 0, len(registry))}
	for _, kind := range registry {
		if !kind.present(b) {
			continue
		}
		sec, err := kind.build(b, p)
		if err != nil {
			return nil, fmt.Errorf("build %s section: %w", kind.typ, err)
		}
		p.Sections = append(p.Sections, sec)
	}
	p.Sections = append(p.Sections, b.passthrough...)

	return p, nil
}

// sectionKind описание одного типа раздела: когда он включается,
// как строится и какие элементы считаются неполными
type sectionKind struct {
	typ     models.SectionType
	present func(b *Builder) bool
	build   func(b *Builder, p *Payload) (models.Section, error)
	partial func(b *Builder) []string
}

// registry задает канонический порядок разделов
var registry = []sectionKind{
	{
		typ:     models.SectionIntro,
		present: func(b *Builder) bool { return !blank(b.introContent) },
		build: func(b *Builder, _ *Payload) (models.Section, error) {
			return newSection(models.SectionIntro, b.introTitle, b.introContent)
		},
	},
	{
		typ:     models.SectionHighlight,
		present: func(b *Builder) bool { return len(b.completeHighlights()) > 0 },
		build: func(b *Builder, _ *Payload) (models.Section, error) {
			return newSection(models.SectionHighlight, "", b.completeHighlights())
		},
		partial: func(b *Builder) []string {
			var out []string
			for i, h := range b.highlights {
				if blank(h.Title) != blank(h.Description) {
					out = append(out, fmt.Sprintf("%s[%d]", models.SectionHighlight, i))
				}
			}
			return out
		},
	},
	{
		typ:     models.SectionGallery,
		present: func(b *Builder) bool { return len(b.gallery) > 0 },
		build: func(b *Builder, p *Payload) (models.Section, error) {
			names := make([]string, 0, len(b.gallery))
			for _, img := range b.gallery {
				names = append(names, img.Name)
				p.attach(PartGallery, img)
			}
			return newSection(models.SectionGallery, "", names)
		},
	},
	{
		typ:     models.SectionExperience,
		present: func(b *Builder) bool { return !blank(b.experience) },
		build: func(b *Builder, _ *Payload) (models.Section, error) {
			return newSection(models.SectionExperience, "", b.experience)
		},
	},
	{
		typ: models.SectionRegionalDelicacies,
		present: func(b *Builder) bool {
			return !blank(b.delicaciesIntro) || len(b.namedDishes()) > 0
		},
		build: func(b *Builder, p *Payload) (models.Section, error) {
			content := models.DelicaciesContent{
				Intro:  b.delicaciesIntro,
				Dishes: make([]models.DishItem, 0, len(b.dishes)),
			}
			for _, i := range b.namedDishes() {
				item := models.DishItem{Name: b.dishes[i].Name}
				if img := b.dishImages[i]; img != nil {
					item.Image = img.Name
					p.attach(PartDelicacies, *img)
				}
				content.Dishes = append(content.Dishes, item)
			}
			return newSection(models.SectionRegionalDelicacies, "", content)
		},
		partial: func(b *Builder) []string {
			var out []string
			for i, d := range b.dishes {
				if blank(d.Name) && b.dishImages[i] != nil {
					out = append(out, fmt.Sprintf("%s.dishes[%d]", models.SectionRegionalDelicacies, i))
				}
			}
			return out
		},
	},
	{
		typ:     models.SectionLastImage,
		present: func(b *Builder) bool { return b.lastImage != nil },
		build: func(b *Builder, p *Payload) (models.Section, error) {
			p.attach(PartLastImage, *b.lastImage)
			return newSection(models.SectionLastImage, "", b.lastImage.Name)
		},
	},
}

func (b *Builder) completeHighlights() []models.HighlightItem {
	var out []models.HighlightItem
	for _, h := range b.highlights {
		if !blank(h.Title) && !blank(h.Description) {
			out = append(out, models.HighlightItem{Title: h.Title, Description: h.Description})
		}
	}
	return out
}

// namedDishes индексы блюд с непустым названием
func (b *Builder) namedDishes() []int {
	var out []int
	for i, d := range b.dishes {
		if !blank(d.Name) {
			out = append(out, i)
		}
	}
	return out
}

func (p *Payload) attach(field string, img ImageRef) {
	if !img.Local {
		return
	}
	p.Attachments = append(p.Attachments, Attachment{
		Field:       field,
		FileName:    img.Name,
		ContentType: img.ContentType,
		Data:        img.Data,
	})
}

func newSection(typ models.SectionType, title string, content any) (models.Section, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return models.Section{}, err
	}
	return models.Section{Type: typ, Title: title, Content: raw}, nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
