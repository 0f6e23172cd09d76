// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 Flare Authors.

package flare

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/flarehq/flare-go/ext"
)

// EnvelopeHeader is the single JSON line opening an envelope.
type EnvelopeHeader struct {
	EventID EventID        `json:"event_id,omitempty"`
	SentAt  *time.Time     `json:"sent_at,omitempty"`
	Trace   map[string]any `json:"trace,omitempty"`
}

// EnvelopeItem is one self-framed item: a JSON header giving type and
// byte-length, followed by exactly that many payload bytes and a newline.
type EnvelopeItem struct {
	Type           ext.Category
	Filename       string // attachments only
	ContentType    string // attachments only
	AttachmentType string // attachments only
	Payload        []byte
}

// Envelope is the ordered, framed wire container.
type Envelope struct {
	Header EnvelopeHeader
	Items  []EnvelopeItem
}

// NewEnvelope returns an empty envelope stamped with the current time.
func NewEnvelope() *Envelope {
	now := time.Now().UTC()
	return &Envelope{Header: EnvelopeHeader{SentAt: &now}}
}

func (e *Envelope) addItem(item EnvelopeItem) { e.Items = append(e.Items, item) }

// itemHeader is the per-item JSON header line.
type itemHeader struct {
	Type           ext.Category `json:"type"`
	Length         int          `json:"length"`
	Filename       string       `json:"filename,omitempty"`
	ContentType    string       `json:"content_type,omitempty"`
	AttachmentType string       `json:"attachment_type,omitempty"`
}

// Serialize writes the envelope's byte-exact wire form. Round-tripping a
// parsed envelope through Serialize reproduces the original bytes.
func (e *Envelope) Serialize(w io.Writer) error {
	hdr, err := json.Marshal(e.Header)
	if err != nil {
		return err
	}
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	if _, err := w.Write([]byte{'\n'}); err != nil {
		return err
	}
	for _, item := range e.Items {
		ih := itemHeader{
			Type:           item.Type,
			Length:         len(item.Payload),
			Filename:       item.Filename,
			ContentType:    item.ContentType,
			AttachmentType: item.AttachmentType,
		}
		b, err := json.Marshal(ih)
		if err != nil {
			return err
		}
		if _, err := w.Write(b); err != nil {
			return err
		}
		if _, err := w.Write([]byte{'\n'}); err != nil {
			return err
		}
		if _, err := w.Write(item.Payload); err != nil {
			return err
		}
		if _, err := w.Write([]byte{'\n'}); err != nil {
			return err
		}
	}
	return nil
}

// Bytes serializes the envelope into a freshly allocated buffer.
func (e *Envelope) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseEnvelope reads a framed envelope from r.
func ParseEnvelope(r io.Reader) (*Envelope, error) {
	br := bufio.NewReader(r)
	headerLine, err := br.ReadBytes('\n')
	if err != nil && len(headerLine) == 0 {
		return nil, err
	}
	headerLine = bytes.TrimRight(headerLine, "\n")
	env := &Envelope{}
	if len(headerLine) > 0 {
		if err := json.Unmarshal(headerLine, &env.Header); err != nil {
			return nil, fmt.Errorf("flare: parsing envelope header: %w", err)
		}
	}
	for {
		itemHeaderLine, err := br.ReadBytes('\n')
		if len(itemHeaderLine) == 0 {
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, err
			}
		}
		itemHeaderLine = bytes.TrimRight(itemHeaderLine, "\n")
		if len(itemHeaderLine) == 0 {
			if err == io.EOF {
				break
			}
			continue
		}
		var ih itemHeader
		if err := json.Unmarshal(itemHeaderLine, &ih); err != nil {
			return nil, fmt.Errorf("flare: parsing item header: %w", err)
		}
		payload := make([]byte, ih.Length)
		if ih.Length > 0 {
			if _, err := io.ReadFull(br, payload); err != nil {
				return nil, err
			}
		}
		// optional trailing newline after the payload.
		if b, err := br.Peek(1); err == nil && len(b) == 1 && b[0] == '\n' {
			_, _ = br.Discard(1)
		}
		env.Items = append(env.Items, EnvelopeItem{
			Type:           ih.Type,
			Filename:       ih.Filename,
			ContentType:    ih.ContentType,
			AttachmentType: ih.AttachmentType,
			Payload:        payload,
		})
		if err == io.EOF {
			break
		}
	}
	return env, nil
}

// categories returns the distinct categories present in the envelope, used
// by the rate limiter to decide whether any item must be stripped.
func (e *Envelope) categories() map[ext.Category]struct{} {
	out := make(map[ext.Category]struct{}, len(e.Items))
	for _, it := range e.Items {
		out[it.Type] = struct{}{}
	}
	return out
}
