// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// BlockType names a body block kind.
type BlockType string

// Block types. Markdown is an authoring format converted to rich text on save.
const (
	BlockRichText BlockType = "rich_text"
	BlockMarkdown BlockType = "markdown"
	BlockImage    BlockType = "image"
	BlockEmbed    BlockType = "embed"
)

// Block is one element of a page body.
// Value is HTML for rich_text, markdown source for markdown, an image id for
// image and a URL for embed.
type Block struct {
	Type  BlockType       `json:"type"`
	Value json.RawMessage `json:"value"`
}

// ParseBody decodes a stored body. An empty string is an empty body.
func ParseBody(raw string) ([]Block, error) {
	if raw == "" {
		return nil, nil
	}
	var blocks []Block
	if err := json.Unmarshal([]byte(raw), &blocks); err != nil {
		return nil, fmt.Errorf("decoding body: %w", err)
	}
	for i, b := range blocks {
		switch b.Type {
		case BlockRichText, BlockMarkdown, BlockImage, BlockEmbed:
		default:
			return nil, fmt.Errorf("block %d: unknown type %q", i, b.Type)
		}
	}
	return blocks, nil
}

// EncodeBody serialises blocks for storage. Nil encodes as an empty array.
func EncodeBody(blocks []Block) (string, error) {
	if blocks == nil {
		return "[]", nil
	}
	data, err := marshalNoEscape(blocks)
	if err != nil {
		return "", fmt.Errorf("encoding body: %w", err)
	}
	return string(data), nil
}

// marshalNoEscape encodes v without escaping <, > and & so stored HTML stays readable.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// TextValue returns the block value as a string.
func (b Block) TextValue() (string, error) {
	var s string
	if err := json.Unmarshal(b.Value, &s); err != nil {
		return "", fmt.Errorf("%s block: value is not a string", b.Type)
	}
	return s, nil
}

// ImageID returns the image id of an image block.
func (b Block) ImageID() (int64, error) {
	var id int64
	if err := json.Unmarshal(b.Value, &id); err != nil {
		return 0, fmt.Errorf("image block: value is not an id")
	}
	return id, nil
}

// NewTextBlock builds a block with a string value.
func NewTextBlock(t BlockType, value string) Block {
	data, _ := marshalNoEscape(value)
	return Block{Type: t, Value: data}
}

// NewImageBlock builds an image block.
func NewImageBlock(id int64) Block {
	data, _ := json.Marshal(id)
	return Block{Type: BlockImage, Value: data}
}
