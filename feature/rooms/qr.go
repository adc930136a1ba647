package rooms

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"qrbooks/core/server"
	"qrbooks/core/storage"

	"github.com/minio/minio-go/v7"
	qrcode "github.com/skip2/go-qrcode"
)

// qrSize is the pixel width of generated QR images.
const qrSize = 512

// Generator renders room QR codes and keeps them in object storage.
// Each code encodes the frontend URL of its room, so scanning a code on
// the door opens that room's booking page.
type Generator struct {
	store  storage.Client
	bucket string
	srv    server.Config
}

// NewGenerator creates a QR generator backed by the given storage client.
func NewGenerator(store storage.Client, bucket string, srv server.Config) *Generator {
	return &Generator{store: store, bucket: bucket, srv: srv}
}

// ObjectKey returns the storage key of the room's QR image.
func (g *Generator) ObjectKey(roomID uint) string {
	return fmt.Sprintf("qr/%d.png", roomID)
}

// PublicURL returns the URL under which this server exposes the QR image.
func (g *Generator) PublicURL(roomID uint) string {
	return g.srv.PublicURL(fmt.Sprintf("api/rooms/%d/qr.png", roomID))
}

// Generate renders the room's QR code and uploads it, replacing any
// previous image. It returns the public URL of the image.
func (g *Generator) Generate(ctx context.Context, roomID uint) (string, error) {
	target := fmt.Sprintf("%s/rooms/%d", g.srv.QRTarget(), roomID)

	png, err := qrcode.Encode(target, qrcode.Medium, qrSize)
	if err != nil {
		return "", fmt.Errorf("failed to encode qr code: %w", err)
	}

	_, err = g.store.PutObject(ctx, g.bucket, g.ObjectKey(roomID),
		bytes.NewReader(png), int64(len(png)),
		minio.PutObjectOptions{ContentType: "image/png"})
	if err != nil {
		return "", fmt.Errorf("failed to upload qr code: %w", err)
	}

	return g.PublicURL(roomID), nil
}

// Fetch streams the room's stored QR image.
func (g *Generator) Fetch(ctx context.Context, roomID uint) (io.ReadCloser, error) {
	obj, err := g.store.GetObject(ctx, g.bucket, g.ObjectKey(roomID), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch qr code: %w", err)
	}
	return obj, nil
}

// ListKeys returns the set of QR object keys currently in storage.
func (g *Generator) ListKeys(ctx context.Context) (map[string]struct{}, error) {
	keys := make(map[string]struct{})
	for obj := range g.store.ListObjects(ctx, g.bucket, minio.ListObjectsOptions{Prefix: "qr/", Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list qr codes: %w", obj.Err)
		}
		keys[obj.Key] = struct{}{}
	}
	return keys, nil
}

// Remove deletes the room's stored QR image.
func (g *Generator) Remove(ctx context.Context, roomID uint) error {
	return g.store.RemoveObject(ctx, g.bucket, g.ObjectKey(roomID), minio.RemoveObjectOptions{})
}
