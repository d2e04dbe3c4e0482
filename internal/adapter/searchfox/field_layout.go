package searchfox

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"searchfox/internal/domain"
)

type layoutTables struct {
	Tables []struct {
		Jumprefs map[string]jumpref `json:"jumprefs"`
	} `json:"tables"`
}

type layoutMeta struct {
	SizeBytes      uint64       `json:"sizeBytes"`
	AlignmentBytes uint64       `json:"alignmentBytes"`
	Supers         []layoutItem `json:"supers"`
	Fields         []layoutItem `json:"fields"`
	Variants       []layoutMeta `json:"variants"`
}

type layoutItem struct {
	OffsetBytes uint64 `json:"offsetBytes"`
	SizeBytes   uint64 `json:"sizeBytes"`
	Sym         string `json:"sym"`
	Type        string `json:"type"`
	Pretty      string `json:"pretty"`
}

// FieldLayout fetches the memory layout of a C++ class.
func (c *Client) FieldLayout(ctx context.Context, class string) (domain.FieldLayout, error) {
	top, err := c.queryDefault(ctx, fmt.Sprintf("field-layout:'%s'", class))
	if err != nil {
		return domain.FieldLayout{}, err
	}
	raw, ok := top["SymbolTreeTableList"]
	if !ok {
		return domain.FieldLayout{}, fmt.Errorf("%w: %s", domain.ErrNoMatchingSymbol, class)
	}
	return parseFieldLayout(raw, class)
}

func parseFieldLayout(raw json.RawMessage, class string) (domain.FieldLayout, error) {
	var list layoutTables
	if err := json.Unmarshal(raw, &list); err != nil {
		return domain.FieldLayout{}, fmt.Errorf("%w: field layout: %v", domain.ErrMalformedResponse, err)
	}

	key := "T_" + class
	for _, table := range list.Tables {
		ref, ok := table.Jumprefs[key]
		if !ok {
			continue
		}
		var meta layoutMeta
		if len(ref.Meta) > 0 {
			if err := json.Unmarshal(ref.Meta, &meta); err != nil {
				return domain.FieldLayout{}, fmt.Errorf("%w: layout meta: %v", domain.ErrMalformedResponse, err)
			}
		}
		if len(meta.Variants) > 0 {
			meta = meta.Variants[0]
		}

		layout := domain.FieldLayout{
			ClassName:      class,
			SizeBytes:      meta.SizeBytes,
			AlignmentBytes: meta.AlignmentBytes,
		}
		for _, s := range meta.Supers {
			name := s.Sym
			if name == "" {
				name = "unknown"
			}
			layout.Bases = append(layout.Bases, domain.LayoutItem{
				Offset: s.OffsetBytes,
				Size:   s.SizeBytes,
				Type:   strings.TrimPrefix(name, "T_"),
			})
		}
		for _, f := range meta.Fields {
			name := "unnamed"
			if f.Pretty != "" {
				parts := strings.Split(f.Pretty, "::")
				name = parts[len(parts)-1]
			}
			typ := f.Type
			if typ == "" {
				typ = "unknown"
			}
			layout.Fields = append(layout.Fields, domain.LayoutItem{
				Offset: f.OffsetBytes,
				Size:   f.SizeBytes,
				Type:   typ,
				Name:   name,
			})
		}
		return layout, nil
	}
	return domain.FieldLayout{}, fmt.Errorf("%w: %s", domain.ErrNoMatchingSymbol, class)
}
