package sections

import (
	"errors"
	"strings"
)

var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrEmptyImageName  = errors.New("image name is empty")
)

// ValidationError перечисляет частично заполненные элементы разделов
// в строгом режиме, например "highlight[1]" или "regionalDelicacies.dishes[0]"
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "partially filled section entries: " + strings.Join(e.Fields, ", ")
}
