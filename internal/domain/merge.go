package domain

import (
	"encoding/json"
	"fmt"
)

// DeepMerge merges src onto dst and returns dst.
// Objects merge recursively, arrays and scalars replace, and a nil value in src deletes the key.
func DeepMerge(dst, src map[string]interface{}) map[string]interface{} {
	if dst == nil {
		dst = make(map[string]interface{}, len(src))
	}
	for k, v := range src {
		if v == nil {
			delete(dst, k)
			continue
		}
		srcMap, srcIsMap := v.(map[string]interface{})
		dstMap, dstIsMap := dst[k].(map[string]interface{})
		if srcIsMap && dstIsMap {
			dst[k] = DeepMerge(dstMap, srcMap)
			continue
		}
		if srcIsMap {
			dst[k] = DeepMerge(nil, srcMap)
			continue
		}
		dst[k] = v
	}
	return dst
}

// MergeDocumentData applies a partial documentData patch onto data.
// Sections missing from the patch are left untouched.
func MergeDocumentData(data DocumentData, patch map[string]interface{}) (DocumentData, error) {
	current, err := toMap(data)
	if err != nil {
		return DocumentData{}, err
	}

	merged := DeepMerge(current, patch)

	raw, err := json.Marshal(merged)
	if err != nil {
		return DocumentData{}, fmt.Errorf("encode merged data: %w", err)
	}
	var out DocumentData
	if err := json.Unmarshal(raw, &out); err != nil {
		return DocumentData{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return out, nil
}

// SectionPatch builds the documentData patch that writes value as the given section
func SectionPatch(section Section, value interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode section %s: %w", section, err)
	}
	var body interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode section %s: %w", section, err)
	}
	return map[string]interface{}{section.DataKey(): body}, nil
}

func toMap(data DocumentData) (map[string]interface{}, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode document data: %w", err)
	}
	out := make(map[string]interface{})
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode document data: %w", err)
	}
	return out, nil
}
