// Package document assembles normalized probe data into the canonical
// native-tier and platform-tier documents.
//
// Every category is optional: a category key appears only when at least
// one of its fields was derived. Documents marshal deterministically.
package document

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// contain runs build and drops the category if it panics, so one broken
// category never takes its siblings down.
func contain(category string, build func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().
				Str("component", "document").
				Str("category", category).
				Interface("panic", r).
				Msg("Category dropped after build failure")
		}
	}()
	build()
}

// Marshal encodes a document as canonical JSON.
func Marshal(doc any) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return data, nil
}

// DecodeNative parses a canonical native document.
func DecodeNative(data []byte) (*NativeDocument, error) {
	var doc NativeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode native document: %w", err)
	}
	return &doc, nil
}

// DecodePlatform parses a canonical platform document.
func DecodePlatform(data []byte) (*PlatformDocument, error) {
	var doc PlatformDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode platform document: %w", err)
	}
	return &doc, nil
}

// DecodePlatformDump parses a raw platform-tier dump as delivered by the
// collector.
func DecodePlatformDump(data []byte) (PlatformDump, error) {
	var raw PlatformDump
	if err := json.Unmarshal(data, &raw); err != nil {
		return PlatformDump{}, fmt.Errorf("decode platform dump: %w", err)
	}
	return raw, nil
}
