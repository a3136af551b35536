package model

// Image MIME types accepted for upload.
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeGIF  = "image/gif"
	MimeTypeWebP = "image/webp"
)

// Preview variant used for listing cards and hero backgrounds.
const (
	PreviewWidth   = 600
	PreviewHeight  = 400
	PreviewQuality = 85
)

// MaxImageUploadSize is the largest accepted image upload, in bytes.
const MaxImageUploadSize = 10 << 20

// IsSupportedImageType reports whether mimeType can be uploaded as an image.
func IsSupportedImageType(mimeType string) bool {
	switch mimeType {
	case MimeTypeJPEG, MimeTypePNG, MimeTypeGIF, MimeTypeWebP:
		return true
	}
	return false
}
