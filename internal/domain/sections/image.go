package sections

// ImageRef ссылка на изображение в разделе.
// Удаленное изображение уже загружено и передается только по имени,
// локальное - новый файл, который уйдет в бэкенд бинарной частью формы.
type ImageRef struct {
	Name        string `json:"name"`
	URL         string `json:"url,omitempty"`
	Local       bool   `json:"local,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Data        []byte `json:"data,omitempty"`
}

// RemoteImage ссылка на уже загруженный файл
func RemoteImage(name, url string) ImageRef {
	return ImageRef{Name: name, URL: url}
}

// LocalImage новый файл, выбранный оператором
func LocalImage(name, contentType string, data []byte) ImageRef {
	return ImageRef{
		Name:        name,
		Local:       true,
		ContentType: contentType,
		Data:        data,
	}
}

// ImageView представление изображения без содержимого файла
type ImageView struct {
	Name  string `json:"name"`
	URL   string `json:"url,omitempty"`
	Local bool   `json:"local"`
	Size  int    `json:"size,omitempty"`
}

func (r ImageRef) view() ImageView {
	return ImageView{Name: r.Name, URL: r.URL, Local: r.Local, Size: len(r.Data)}
}
