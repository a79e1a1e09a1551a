package types

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// AttachmentThumbnail is one rendition of an attachment preview.
type AttachmentThumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// AttachmentThumbnailSet holds the thumbnail renditions the server offers.
type AttachmentThumbnailSet struct {
	Small *AttachmentThumbnail `json:"small,omitempty"`
	Large *AttachmentThumbnail `json:"large,omitempty"`
	Full  *AttachmentThumbnail `json:"full,omitempty"`
}

// Attachment describes one file attached to a record.
type Attachment struct {
	ID         string                  `json:"id"`
	URL        string                  `json:"url"`
	Filename   string                  `json:"filename"`
	Size       int64                   `json:"size"`
	Type       string                  `json:"type"`
	Width      int                     `json:"width,omitempty"`
	Height     int                     `json:"height,omitempty"`
	Thumbnails *AttachmentThumbnailSet `json:"thumbnails,omitempty"`
}

// AttachmentField maps an attachment column. Attachment fields are only
// implemented read-only: the server owns attachment uploads, so encoding
// is unsupported and NewAttachmentField panics unless ReadOnly is given.
type AttachmentField struct {
	baseField
}

// NewAttachmentField returns a read-only attachment field bound to the
// given column. The ReadOnly option is required; its absence is a
// definition-time mistake and panics.
func NewAttachmentField(column string, opts ...FieldOption) *AttachmentField {
	f := &AttachmentField{baseField: newBaseField(column, opts...)}
	if !f.readOnly {
		panic("types: AttachmentField is only implemented as a read-only field")
	}
	return f
}

func (f *AttachmentField) Decode(wire any, _ BaseAndTable) (any, error) {
	if wire == nil {
		return []Attachment{}, nil
	}
	// The wire shape is a JSON array of attachment objects; remarshaling
	// maps it onto the typed descriptors.
	raw, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("%w: attachment field %q: %v", ErrInvalidValue, f.column, err)
	}
	var attachments []Attachment
	if err := json.Unmarshal(raw, &attachments); err != nil {
		return nil, fmt.Errorf("%w: attachment field %q: %v", ErrInvalidValue, f.column, err)
	}
	return attachments, nil
}

func (f *AttachmentField) Encode(any) (any, error) {
	return nil, fmt.Errorf("%w: attachment field %q cannot be encoded", ErrUnsupportedOperation, f.column)
}

func (f *AttachmentField) Validate(value any, _ BaseAndTable) (any, error) {
	switch v := value.(type) {
	case nil:
		return []Attachment{}, nil
	case []Attachment:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: attachment field %q: cannot accept %T", ErrInvalidValue, f.column, value)
	}
}

func (f *AttachmentField) CloneValue(value any) any {
	attachments, ok := value.([]Attachment)
	if !ok {
		return value
	}
	clone := make([]Attachment, len(attachments))
	copy(clone, attachments)
	return clone
}

func (f *AttachmentField) IsSameValue(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
