package service

import "context"

type Document struct {
	Path     string
	Name     string
	MIMEType string
	Data     []byte
	SHA256   string
	Pages    int
}

type DocumentSource interface {
	Load(ctx context.Context, path string) (*Document, error)
}
