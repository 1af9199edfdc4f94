// Package sections собирает разделы контента направления из состояния формы
// и сериализует их в формат бэкенда: JSON-массив разделов плюс бинарные
// вложения для новых изображений.
package sections

import (
	"encoding/json"
	"fmt"
	"slices"
)

// HighlightEntry строка раздела highlight в форме
type HighlightEntry struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// DishEntry строка блюда в форме. Изображение блюда хранится
// в параллельном срезе Builder.dishImages под тем же индексом.
type DishEntry struct {
	Name string `json:"name"`
}

// Builder состояние формы разделов одного черновика.
// Все изменения выполняются через методы, возвращаемые наружу срезы копируются.
type Builder struct {
	introTitle      string
	introContent    string
	highlights      []HighlightEntry
	gallery         []ImageRef
	experience      string
	delicaciesIntro string
	dishes          []DishEntry
	dishImages      []*ImageRef
	lastImage       *ImageRef
	passthrough     []passthroughSection
}

// NewBuilder пустая форма
func NewBuilder() *Builder {
	return &Builder{}
}

// SetIntro задает заголовок и markdown-текст вступления
func (b *Builder) SetIntro(title, content string) {
	b.introTitle = title
	b.introContent = content
}

// Intro возвращает заголовок и текст вступления
func (b *Builder) Intro() (title, content string) {
	return b.introTitle, b.introContent
}

// SetExperience задает markdown-текст раздела experience
func (b *Builder) SetExperience(content string) {
	b.experience = content
}

func (b *Builder) Experience() string {
	return b.experience
}

// SetDelicaciesIntro задает вводный текст раздела regionalDelicacies
func (b *Builder) SetDelicaciesIntro(intro string) {
	b.delicaciesIntro = intro
}

func (b *Builder) DelicaciesIntro() string {
	return b.delicaciesIntro
}

// ---------------------------- HIGHLIGHTS ----------------------------

// AddHighlight добавляет пустую строку и возвращает ее индекс
func (b *Builder) AddHighlight() int {
	b.highlights = append(b.highlights, HighlightEntry{})
	return len(b.highlights) - 1
}

func (b *Builder) SetHighlight(index int, title, description string) error {
	if err := checkIndex("highlight", index, len(b.highlights)); err != nil {
		return err
	}
	b.highlights[index] = HighlightEntry{Title: title, Description: description}
	return nil
}

func (b *Builder) RemoveHighlight(index int) error {
	if err := checkIndex("highlight", index, len(b.highlights)); err != nil {
		return err
	}
	b.highlights = slices.Delete(b.highlights, index, index+1)
	return nil
}

func (b *Builder) Highlights() []HighlightEntry {
	return slices.Clone(b.highlights)
}

// ---------------------------- GALLERY ----------------------------

// AddGalleryImage добавляет изображение в конец галереи
func (b *Builder) AddGalleryImage(ref ImageRef) (int, error) {
	if ref.Name == "" {
		return 0, ErrEmptyImageName
	}
	b.gallery = append(b.gallery, ref)
	return len(b.gallery) - 1, nil
}

func (b *Builder) RemoveGalleryImage(index int) error {
	if err := checkIndex("gallery", index, len(b.gallery)); err != nil {
		return err
	}
	b.gallery = slices.Delete(b.gallery, index, index+1)
	return nil
}

func (b *Builder) Gallery() []ImageRef {
	return slices.Clone(b.gallery)
}

// ---------------------------- DISHES ----------------------------

// AddDish добавляет блюдо без названия и изображения
func (b *Builder) AddDish() int {
	b.dishes = append(b.dishes, DishEntry{})
	b.dishImages = append(b.dishImages, nil)
	return len(b.dishes) - 1
}

func (b *Builder) SetDish(index int, name string) error {
	if err := checkIndex("dish", index, len(b.dishes)); err != nil {
		return err
	}
	b.dishes[index].Name = name
	return nil
}

// SetDishImage привязывает изображение к блюду с тем же индексом
func (b *Builder) SetDishImage(index int, ref ImageRef) error {
	if err := checkIndex("dish", index, len(b.dishes)); err != nil {
		return err
	}
	if ref.Name == "" {
		return ErrEmptyImageName
	}
	b.dishImages[index] = &ref
	return nil
}

func (b *Builder) ClearDishImage(index int) error {
	if err := checkIndex("dish", index, len(b.dishes)); err != nil {
		return err
	}
	b.dishImages[index] = nil
	return nil
}

// RemoveDish удаляет блюдо вместе с его изображением
func (b *Builder) RemoveDish(index int) error {
	if err := checkIndex("dish", index, len(b.dishes)); err != nil {
		return err
	}
	b.dishes = slices.Delete(b.dishes, index, index+1)
	b.dishImages = slices.Delete(b.dishImages, index, index+1)
	return nil
}

func (b *Builder) Dishes() []DishEntry {
	return slices.Clone(b.dishes)
}

// DishImage изображение блюда или nil
func (b *Builder) DishImage(index int) *ImageRef {
	if index < 0 || index >= len(b.dishImages) || b.dishImages[index] == nil {
		return nil
	}
	ref := *b.dishImages[index]
	return &ref
}

// ---------------------------- LAST IMAGE ----------------------------

func (b *Builder) SetLastImage(ref ImageRef) error {
	if ref.Name == "" {
		return ErrEmptyImageName
	}
	b.lastImage = &ref
	return nil
}

func (b *Builder) ClearLastImage() {
	b.lastImage = nil
}

func (b *Builder) LastImage() *ImageRef {
	if b.lastImage == nil {
		return nil
	}
	ref := *b.lastImage
	return &ref
}

func checkIndex(kind string, index, length int) error {
	if index < 0 || index >= length {
		return fmt.Errorf("%w: %s %d (len %d)", ErrIndexOutOfRange, kind, index, length)
	}
	return nil
}

// ---------------------------- VIEW / PERSISTENCE ----------------------------

// DishView блюдо вместе с изображением для ответа API
type DishView struct {
	Name  string     `json:"name"`
	Image *ImageView `json:"image,omitempty"`
}

// View состояние формы без содержимого файлов
type View struct {
	Intro struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	} `json:"intro"`
	Highlights []HighlightEntry `json:"highlights"`
	Gallery    []ImageView      `json:"gallery"`
	Experience string           `json:"experience"`
	Delicacies struct {
		Intro  string     `json:"intro"`
		Dishes []DishView `json:"dishes"`
	} `json:"regionalDelicacies"`
	LastImage *ImageView `json:"lastImage,omitempty"`
}

// View снимок формы для отображения оператору
func (b *Builder) View() View {
	var v View
	v.Intro.Title = b.introTitle
	v.Intro.Content = b.introContent
	v.Highlights = append(make([]HighlightEntry, 0, len(b.highlights)), b.highlights...)
	v.Gallery = make([]ImageView, 0, len(b.gallery))
	for _, img := range b.gallery {
		v.Gallery = append(v.Gallery, img.view())
	}
	v.Experience = b.experience
	v.Delicacies.Intro = b.delicaciesIntro
	v.Delicacies.Dishes = make([]DishView, 0, len(b.dishes))
	for i, d := range b.dishes {
		dv := DishView{Name: d.Name}
		if img := b.dishImages[i]; img != nil {
			iv := img.view()
			dv.Image = &iv
		}
		v.Delicacies.Dishes = append(v.Delicacies.Dishes, dv)
	}
	if b.lastImage != nil {
		iv := b.lastImage.view()
		v.LastImage = &iv
	}
	return v
}

// builderState формат хранения формы в черновике, включая локальные файлы
type builderState struct {
	IntroTitle      string               `json:"intro_title"`
	IntroContent    string               `json:"intro_content"`
	Highlights      []HighlightEntry     `json:"highlights"`
	Gallery         []ImageRef           `json:"gallery"`
	Experience      string               `json:"experience"`
	DelicaciesIntro string               `json:"delicacies_intro"`
	Dishes          []DishEntry          `json:"dishes"`
	DishImages      []*ImageRef          `json:"dish_images"`
	LastImage       *ImageRef            `json:"last_image,omitempty"`
	Passthrough     []passthroughSection `json:"passthrough,omitempty"`
}

func (b *Builder) MarshalJSON() ([]byte, error) {
	return json.Marshal(builderState{
		IntroTitle:      b.introTitle,
		IntroContent:    b.introContent,
		Highlights:      b.highlights,
		Gallery:         b.gallery,
		Experience:      b.experience,
		DelicaciesIntro: b.delicaciesIntro,
		Dishes:          b.dishes,
		DishImages:      b.dishImages,
		LastImage:       b.lastImage,
		Passthrough:     b.passthrough,
	})
}

func (b *Builder) UnmarshalJSON(data []byte) error {
	var st builderState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	if len(st.DishImages) != len(st.Dishes) {
		images := make([]*ImageRef, len(st.Dishes))
		copy(images, st.DishImages)
		st.DishImages = images
	}

	*b = Builder{
		introTitle:      st.IntroTitle,
		introContent:    st.IntroContent,
		highlights:      st.Highlights,
		gallery:         st.Gallery,
		experience:      st.Experience,
		delicaciesIntro: st.DelicaciesIntro,
		dishes:          st.Dishes,
		dishImages:      st.DishImages,
		lastImage:       st.LastImage,
		passthrough:     st.Passthrough,
	}
	return nil
}
