package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttachmentFieldRequiresReadOnly(t *testing.T) {
	assert.Panics(t, func() {
		NewAttachmentField("Files")
	})
	assert.NotPanics(t, func() {
		NewAttachmentField("Files", ReadOnly())
	})
}

func TestAttachmentFieldDecode(t *testing.T) {
	f := NewAttachmentField("Files", ReadOnly())

	wire := []any{
		map[string]any{
			"id":       "att001",
			"url":      "https://files.example.com/att001",
			"filename": "photo.png",
			"size":     1024.0,
			"type":     "image/png",
			"width":    640.0,
			"height":   480.0,
			"thumbnails": map[string]any{
				"small": map[string]any{"url": "https://files.example.com/att001/s", "width": 36.0, "height": 27.0},
			},
		},
	}

	value, err := f.Decode(wire, noAddr)
	assert.NoError(t, err)
	attachments := value.([]Attachment)
	assert.Len(t, attachments, 1)
	assert.Equal(t, "att001", attachments[0].ID)
	assert.Equal(t, "photo.png", attachments[0].Filename)
	assert.Equal(t, int64(1024), attachments[0].Size)
	assert.NotNil(t, attachments[0].Thumbnails.Small)
	assert.Equal(t, 36, attachments[0].Thumbnails.Small.Width)

	value, err = f.Decode(nil, noAddr)
	assert.NoError(t, err)
	assert.Empty(t, value)
}

func TestAttachmentFieldEncodeUnsupported(t *testing.T) {
	f := NewAttachmentField("Files", ReadOnly())

	_, err := f.Encode([]Attachment{})
	assert.ErrorIs(t, err, ErrUnsupportedOperation)
}
