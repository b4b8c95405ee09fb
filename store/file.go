package store

import (
	"io"
	"mime"
	"path/filepath"
)

type File struct {
	Name string
	// Type overrides the content type guessed from the name
	Type        string
	ContentSize int64
	io.Reader
}

func (f File) ContentType() string {
	if f.Type != "" {
		return f.Type
	}
	return mime.TypeByExtension(filepath.Ext(f.Name))
}

func (f File) Len() int64 {
	return f.ContentSize
}
